package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/vectcut/credits/pkg/db/pagination"
)

type SpendRequest struct {
	OwnerID          string              `json:"owner_id"`
	Amount           int64               `json:"amount"`
	Type             TransactionType     `json:"type"`
	Description      string              `json:"description,omitempty"`
	ProjectID        string              `json:"project_id,omitempty"`
	Provider         string              `json:"provider,omitempty"`
	Model            string              `json:"model,omitempty"`
	Variant          string              `json:"variant,omitempty"`
	Metadata         TransactionMetadata `json:"metadata,omitempty"`
	RealCostOverride *float64            `json:"real_cost_override,omitempty"`
}

// SpendResult is a typed outcome, not an error: insufficient balance is an
// expected condition callers branch on.
type SpendResult struct {
	Success  bool    `json:"success"`
	Balance  int64   `json:"balance"`
	Required int64   `json:"required,omitempty"`
	RealCost float64 `json:"real_cost,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type AddRequest struct {
	OwnerID     string          `json:"owner_id"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description,omitempty"`
}

type AddResult struct {
	Balance     int64 `json:"balance"`
	TotalEarned int64 `json:"total_earned"`
}

type TrackRequest struct {
	OwnerID     string              `json:"owner_id"`
	RealCost    float64             `json:"real_cost"`
	Type        TransactionType     `json:"type"`
	Description string              `json:"description,omitempty"`
	ProjectID   string              `json:"project_id,omitempty"`
	Provider    string              `json:"provider,omitempty"`
	Model       string              `json:"model,omitempty"`
	Metadata    TransactionMetadata `json:"metadata,omitempty"`
}

type CheckBalanceResult struct {
	HasEnough bool  `json:"has_enough"`
	Balance   int64 `json:"balance"`
	Required  int64 `json:"required"`
	// Offline marks a degraded read served from cache or zero values.
	Offline bool `json:"offline,omitempty"`
}

type HistoryRequest struct {
	OwnerID   string          `json:"owner_id"`
	Type      TransactionType `json:"type,omitempty"`
	ProjectID string          `json:"project_id,omitempty"`
	PageToken string          `json:"page_token,omitempty"`
	PageSize  int32           `json:"page_size,omitempty"`
}

type HistoryResponse struct {
	pagination.PageInfo
	Transactions []Transaction `json:"transactions"`
}

type Service interface {
	GetOrCreate(ctx context.Context, ownerID string) (*Balance, error)
	Spend(ctx context.Context, req SpendRequest) (SpendResult, error)
	Add(ctx context.Context, req AddRequest) (AddResult, error)
	TrackRealCostOnly(ctx context.Context, req TrackRequest) (*Transaction, error)
	CheckBalance(ctx context.Context, ownerID string, required int64) (CheckBalanceResult, error)
	History(ctx context.Context, req HistoryRequest) (HistoryResponse, error)
}

var (
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidType         = errors.New("invalid_type")
	ErrInvalidRealCost     = errors.New("invalid_real_cost")
	ErrInvalidProject      = errors.New("invalid_project")
	ErrInsufficientCredits = errors.New("insufficient_credits")
	ErrStorageUnavailable  = errors.New("storage_unavailable")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
