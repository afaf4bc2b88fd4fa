package ratelimit

import (
	"context"
	"testing"

	"github.com/vectcut/credits/internal/config"
)

func TestNewSpendGuard_DisabledReturnsNil(t *testing.T) {
	guard, err := NewSpendGuard(config.Config{})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	if guard != nil {
		t.Fatal("expected nil guard when rate limiting is disabled")
	}
}

func TestNewSpendGuard_Validation(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.RateLimitConfig
	}{
		{
			name: "missing addr",
			cfg: config.RateLimitConfig{
				Enabled:         true,
				SpendOwnerRate:  10,
				SpendOwnerBurst: 20,
				LockTTLSeconds:  30,
			},
		},
		{
			name: "zero rate",
			cfg: config.RateLimitConfig{
				Enabled:         true,
				RedisAddr:       "localhost:6379",
				SpendOwnerBurst: 20,
				LockTTLSeconds:  30,
			},
		},
		{
			name: "zero lock ttl",
			cfg: config.RateLimitConfig{
				Enabled:         true,
				RedisAddr:       "localhost:6379",
				SpendOwnerRate:  10,
				SpendOwnerBurst: 20,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSpendGuard(config.Config{RateLimit: tc.cfg}); err == nil {
				t.Fatal("expected a configuration error")
			}
		})
	}
}

func TestNilGuardAllowsEverything(t *testing.T) {
	var guard *SpendGuard
	ctx := context.Background()

	if guard.Enabled() {
		t.Fatal("nil guard reports enabled")
	}
	ok, err := guard.AllowOwner(ctx, "42")
	if err != nil || !ok {
		t.Fatalf("nil guard must allow, got ok=%v err=%v", ok, err)
	}
	token, ok, err := guard.TryLockOwner(ctx, "42")
	if err != nil || !ok {
		t.Fatalf("nil guard must grant the lock, got ok=%v err=%v", ok, err)
	}
	if err := guard.ReleaseOwner(ctx, "42", token); err != nil {
		t.Fatalf("nil guard release: %v", err)
	}
}

func TestOwnerLockValidation(t *testing.T) {
	if _, err := newOwnerLock(nil, 0); err == nil {
		t.Fatal("expected an error without a redis client")
	}
}
