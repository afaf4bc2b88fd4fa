package domain

import (
	"context"
	"errors"

	ledgerdomain "github.com/vectcut/credits/internal/ledger/domain"
)

// GroupStat aggregates transactions sharing one grouping key. RealCost is
// already multiplied by the owner's cost multiplier.
type GroupStat struct {
	Count        int64   `json:"count"`
	CreditAmount int64   `json:"credit_amount"`
	RealCost     float64 `json:"real_cost"`
}

type Statistics struct {
	Balance            ledgerdomain.Balance `json:"balance"`
	ByType             map[string]GroupStat `json:"by_type"`
	ByProvider         map[string]GroupStat `json:"by_provider"`
	ByProject          map[string]GroupStat `json:"by_project"`
	TotalGenerations   int64                `json:"total_generations"`
	TotalRegenerations int64                `json:"total_regenerations"`
	CostMultiplier     float64              `json:"cost_multiplier"`
	// Offline marks a degraded read served from cache instead of storage.
	Offline bool `json:"offline,omitempty"`
}

type Service interface {
	UserStatistics(ctx context.Context, ownerID string) (*Statistics, error)
	CostMultiplier(ctx context.Context, ownerID string) (float64, error)
}

var ErrInvalidOwner = errors.New("invalid_owner")
