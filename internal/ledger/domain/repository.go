package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists balances and appends transactions. Transactions are
// write-once: no update or delete operation exists.
type Repository interface {
	// InsertBalance creates the row unless one already exists for the owner.
	// Returns false when the owner already had a balance.
	InsertBalance(ctx context.Context, db *gorm.DB, balance *Balance) (bool, error)
	FindBalance(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*Balance, error)

	// DebitBalance atomically decrements balance and bumps total_spent and
	// total_real_cost, but only when the current balance covers the amount.
	// Returns false without mutating anything otherwise.
	DebitBalance(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, amount int64, realCost float64, now time.Time) (bool, error)

	// CreditBalance increments balance and total_earned.
	CreditBalance(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, amount int64, now time.Time) error

	// AddRealCost bumps total_real_cost only.
	AddRealCost(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, realCost float64, now time.Time) error

	InsertTransaction(ctx context.Context, db *gorm.DB, txn *Transaction) error
}
