package repository

import (
	"context"

	catalogdomain "github.com/vectcut/credits/internal/catalog/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, rate *catalogdomain.CostRate) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "action_type"},
			{Name: "provider"},
			{Name: "model"},
			{Name: "variant"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"credit_cost", "real_cost", "active", "updated_at"}),
	}).Create(rate).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]catalogdomain.CostRate, error) {
	var rates []catalogdomain.CostRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, action_type, provider, model, variant, credit_cost, real_cost, active, created_at, updated_at
		 FROM cost_rates ORDER BY action_type, provider, model, variant`,
	).Scan(&rates).Error
	return rates, err
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]catalogdomain.CostRate, error) {
	var rates []catalogdomain.CostRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, action_type, provider, model, variant, credit_cost, real_cost, active, created_at, updated_at
		 FROM cost_rates WHERE active ORDER BY action_type, provider, model, variant`,
	).Scan(&rates).Error
	return rates, err
}
