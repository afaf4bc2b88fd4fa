package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, rate *CostRate) error
	List(ctx context.Context, db *gorm.DB) ([]CostRate, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]CostRate, error)
}
