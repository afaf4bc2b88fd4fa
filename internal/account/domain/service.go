package domain

import (
	"context"
	"errors"
)

type UpsertProfileRequest struct {
	OwnerID        string   `json:"owner_id"`
	CostMultiplier *float64 `json:"cost_multiplier,omitempty"`
	Privileged     *bool    `json:"privileged,omitempty"`
}

type Service interface {
	// CostMultiplier returns 1.0 for privileged owners, the profile value
	// otherwise, and the configured default when no profile row exists.
	CostMultiplier(ctx context.Context, ownerID string) (float64, error)
	Get(ctx context.Context, ownerID string) (*Profile, error)
	Upsert(ctx context.Context, req UpsertProfileRequest) (*Profile, error)
}

var (
	ErrInvalidOwner      = errors.New("invalid_owner")
	ErrInvalidMultiplier = errors.New("invalid_multiplier")
)
