// Package models contains the GORM persistence models and their mapping
// to domain aggregates.
package models

// All returns every model for AutoMigrate
func All() []any {
	return []any{
		&CustomerModel{},
		&OrderModel{},
		&OrderLineModel{},
	}
}
