package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cos/backend/internal/domain/shared/valueobject"
)

func TestNewProduct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, err := NewProduct("P1", "Laptop", "High-performance laptop",
			valueobject.MustMoney("999.99"), valueobject.MustMoney("899.99"))
		require.NoError(t, err)
		assert.Equal(t, "P1", p.ID)
		assert.Equal(t, "899.99", p.EffectivePrice().String())
		assert.True(t, p.OnSale())
	})

	tests := []struct {
		name    string
		id      string
		pname   string
		regular string
		sale    string
	}{
		{"empty id", " ", "Laptop", "1", "0"},
		{"empty name", "P1", "", "1", "0"},
		{"zero regular price", "P1", "Laptop", "0", "0"},
		{"negative sale", "P1", "Laptop", "1", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.id, tt.pname, "", valueobject.MustMoney(tt.regular), valueobject.MustMoney(tt.sale))
			assert.Error(t, err)
		})
	}
}

func TestProduct_EffectivePriceTracksChanges(t *testing.T) {
	p, err := NewProduct("P3", "Headphones", "Noise-cancelling", valueobject.MustMoney("199.99"), valueobject.Zero())
	require.NoError(t, err)
	assert.Equal(t, "199.99", p.EffectivePrice().String())
	assert.False(t, p.OnSale())

	p.SalePrice = valueobject.MustMoney("149.99")
	assert.Equal(t, "149.99", p.EffectivePrice().String())
}
