package domain

import (
	"context"
	"errors"
)

type UpsertRateRequest struct {
	ActionType string  `json:"action_type"`
	Provider   string  `json:"provider,omitempty"`
	Model      string  `json:"model,omitempty"`
	Variant    string  `json:"variant,omitempty"`
	CreditCost int64   `json:"credit_cost"`
	RealCost   float64 `json:"real_cost"`
	Active     *bool   `json:"active,omitempty"`
}

// Service resolves credit prices and estimated real provider costs.
//
// CreditCost is deliberately coarse: it ignores the provider, so the platform
// absorbs provider cost variance. RealCost resolves through exact-match tiers:
// (action, provider, model, variant), then (action, provider, model), then
// (action, provider), then the action default. No substring matching on model
// identifiers.
type Service interface {
	CreditCost(actionType, variant string) int64
	RealCost(ctx context.Context, actionType, provider, model, variant string) float64
	ListRates(ctx context.Context) ([]CostRate, error)
	UpsertRate(ctx context.Context, req UpsertRateRequest) (*CostRate, error)
}

var (
	ErrInvalidActionType = errors.New("invalid_action_type")
	ErrInvalidCreditCost = errors.New("invalid_credit_cost")
	ErrInvalidRealCost   = errors.New("invalid_real_cost")
	ErrNotFound          = errors.New("not_found")
)
