package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/vectcut/credits/internal/ledger/domain"
	dbpkg "github.com/vectcut/credits/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ledgerdomain.Repository {
	return &repo{}
}

func (r *repo) InsertBalance(ctx context.Context, db *gorm.DB, balance *ledgerdomain.Balance) (bool, error) {
	// Losing the insert race is not an error: the caller reads the winner's
	// row. The duplicate check keeps this portable across dialects.
	result := db.WithContext(ctx).Exec(
		`INSERT INTO credit_balances (id, owner_id, balance, total_spent, total_earned, total_real_cost, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		balance.ID,
		balance.OwnerID,
		balance.Balance,
		balance.TotalSpent,
		balance.TotalEarned,
		balance.TotalRealCost,
		balance.CreatedAt,
		balance.UpdatedAt,
	)
	if result.Error != nil {
		if dbpkg.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindBalance(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*ledgerdomain.Balance, error) {
	var balance ledgerdomain.Balance
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, balance, total_spent, total_earned, total_real_cost, created_at, updated_at
		 FROM credit_balances WHERE owner_id = ?`,
		ownerID,
	).Scan(&balance).Error
	if err != nil {
		return nil, err
	}
	if balance.ID == 0 {
		return nil, nil
	}
	return &balance, nil
}

func (r *repo) DebitBalance(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, amount int64, realCost float64, now time.Time) (bool, error) {
	if amount < 0 {
		return false, errors.New("debit amount must not be negative")
	}
	// The balance >= amount guard makes the decrement atomic: two concurrent
	// spends against the same owner cannot both pass the floor check.
	result := db.WithContext(ctx).Exec(
		`UPDATE credit_balances
		 SET balance = balance - ?,
		     total_spent = total_spent + ?,
		     total_real_cost = total_real_cost + ?,
		     updated_at = ?
		 WHERE owner_id = ? AND balance >= ?`,
		amount,
		amount,
		realCost,
		now,
		ownerID,
		amount,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) CreditBalance(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, amount int64, now time.Time) error {
	if amount < 0 {
		return errors.New("credit amount must not be negative")
	}
	return db.WithContext(ctx).Exec(
		`UPDATE credit_balances
		 SET balance = balance + ?,
		     total_earned = total_earned + ?,
		     updated_at = ?
		 WHERE owner_id = ?`,
		amount,
		amount,
		now,
		ownerID,
	).Error
}

func (r *repo) AddRealCost(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, realCost float64, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE credit_balances
		 SET total_real_cost = total_real_cost + ?,
		     updated_at = ?
		 WHERE owner_id = ?`,
		realCost,
		now,
		ownerID,
	).Error
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, txn *ledgerdomain.Transaction) error {
	var projectID any
	if txn.ProjectID != 0 {
		projectID = txn.ProjectID
	}
	var provider any
	if txn.Provider != "" {
		provider = txn.Provider
	}
	var model any
	if txn.Model != "" {
		model = txn.Model
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO credit_transactions (id, owner_id, amount, type, provider, model, real_cost, project_id, description, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.OwnerID,
		txn.Amount,
		txn.Type,
		provider,
		model,
		txn.RealCost,
		projectID,
		txn.Description,
		txn.Metadata,
		txn.CreatedAt,
	).Error
}
