package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/infrastructure/persistence/models"
)

// GormCustomerRepository implements identity.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithTx returns a new repository with the given transaction
func (r *GormCustomerRepository) WithTx(tx *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: tx}
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *identity.Customer) error {
	exists, err := r.ExistsByID(ctx, customer.ID)
	if err != nil {
		return err
	}
	if exists {
		return identity.ErrDuplicateID
	}

	model := models.CustomerModelFromDomain(customer)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return identity.ErrDuplicateID
		}
		return err
	}
	return nil
}

// Update writes every column of an existing customer
func (r *GormCustomerRepository) Update(ctx context.Context, customer *identity.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ?", customer.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return identity.ErrCustomerNotFound
	}
	return nil
}

// FindByID finds a customer by its chosen ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id string) (*identity.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrCustomerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByID checks if a customer ID is already registered
func (r *GormCustomerRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ identity.CustomerRepository = (*GormCustomerRepository)(nil)
