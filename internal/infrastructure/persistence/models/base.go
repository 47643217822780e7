package models

import (
	"time"

	"github.com/cos/backend/internal/domain/shared"
)

// AggregateModel provides the persistence fields shared by aggregate roots
type AggregateModel struct {
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

// ToDomain converts AggregateModel to the domain BaseAggregateRoot
func (m *AggregateModel) ToDomain() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Version:   m.Version,
	}
}

// FromDomainAggregateRoot populates AggregateModel from the domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}
