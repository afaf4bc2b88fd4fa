package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/vectcut/credits/internal/config"
)

const (
	keySpendOwner = "credits:spend:owner:%s"
	keySpendLock  = "credits:spend:lock:%s"
)

// SpendGuard throttles per-owner spend traffic. Nil (redis not configured)
// means every call is allowed.
type SpendGuard struct {
	enabled bool

	bucket *TokenBucket
	locks  *ownerLock

	ownerRate  float64
	ownerBurst int
}

func NewSpendGuard(cfg config.Config) (*SpendGuard, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.SpendOwnerRate <= 0 || limitCfg.SpendOwnerBurst <= 0 {
		return nil, errors.New("spend owner rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	locks, err := newOwnerLock(client, time.Duration(limitCfg.LockTTLSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	return &SpendGuard{
		enabled:    true,
		bucket:     NewTokenBucket(client),
		locks:      locks,
		ownerRate:  limitCfg.SpendOwnerRate,
		ownerBurst: limitCfg.SpendOwnerBurst,
	}, nil
}

func (g *SpendGuard) Enabled() bool {
	return g != nil && g.enabled
}

func (g *SpendGuard) AllowOwner(ctx context.Context, ownerID string) (bool, error) {
	if !g.Enabled() {
		return true, nil
	}
	return g.bucket.Allow(ctx, fmt.Sprintf(keySpendOwner, strings.TrimSpace(ownerID)), g.ownerRate, g.ownerBurst)
}

func (g *SpendGuard) TryLockOwner(ctx context.Context, ownerID string) (string, bool, error) {
	if !g.Enabled() {
		return "", true, nil
	}
	return g.locks.Acquire(ctx, ownerID)
}

func (g *SpendGuard) ReleaseOwner(ctx context.Context, ownerID, token string) error {
	if !g.Enabled() {
		return nil
	}
	return g.locks.Release(ctx, ownerID, token)
}
