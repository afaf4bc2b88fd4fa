package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/vectcut/credits/internal/account/domain"
	"github.com/vectcut/credits/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, defaultMultiplier float64) accountdomain.Service {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&accountdomain.Profile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg:   config.Config{DefaultCostMultiplier: defaultMultiplier},
	})
}

func TestCostMultiplier_DefaultWithoutProfile(t *testing.T) {
	svc := newTestService(t, 1.5)

	got, err := svc.CostMultiplier(context.Background(), "301")
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	if got != 1.5 {
		t.Fatalf("expected default 1.5, got %f", got)
	}
}

func TestCostMultiplier_FloorsConfiguredDefault(t *testing.T) {
	svc := newTestService(t, 0.5)

	got, err := svc.CostMultiplier(context.Background(), "302")
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	if got != 1.0 {
		t.Fatalf("expected floored default 1.0, got %f", got)
	}
}

func TestCostMultiplier_ProfileValue(t *testing.T) {
	svc := newTestService(t, 1.5)
	ctx := context.Background()
	multiplier := 2.5

	if _, err := svc.Upsert(ctx, accountdomain.UpsertProfileRequest{
		OwnerID:        "303",
		CostMultiplier: &multiplier,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := svc.CostMultiplier(ctx, "303")
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	if got != 2.5 {
		t.Fatalf("expected 2.5, got %f", got)
	}
}

func TestCostMultiplier_PrivilegedOwnerPaysCost(t *testing.T) {
	svc := newTestService(t, 1.5)
	ctx := context.Background()
	multiplier := 3.0
	privileged := true

	if _, err := svc.Upsert(ctx, accountdomain.UpsertProfileRequest{
		OwnerID:        "304",
		CostMultiplier: &multiplier,
		Privileged:     &privileged,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := svc.CostMultiplier(ctx, "304")
	if err != nil {
		t.Fatalf("multiplier: %v", err)
	}
	if got != 1.0 {
		t.Fatalf("expected privileged multiplier 1.0, got %f", got)
	}
}

func TestUpsert_ReplacesExistingProfile(t *testing.T) {
	svc := newTestService(t, 1.5)
	ctx := context.Background()

	first := 2.0
	if _, err := svc.Upsert(ctx, accountdomain.UpsertProfileRequest{OwnerID: "305", CostMultiplier: &first}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second := 4.0
	profile, err := svc.Upsert(ctx, accountdomain.UpsertProfileRequest{OwnerID: "305", CostMultiplier: &second})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if profile.CostMultiplier != 4.0 {
		t.Fatalf("expected 4.0, got %f", profile.CostMultiplier)
	}
}

func TestUpsert_Validation(t *testing.T) {
	svc := newTestService(t, 1.5)
	ctx := context.Background()
	tooLow := 0.5

	if _, err := svc.Upsert(ctx, accountdomain.UpsertProfileRequest{OwnerID: "306", CostMultiplier: &tooLow}); !errors.Is(err, accountdomain.ErrInvalidMultiplier) {
		t.Fatalf("expected invalid multiplier, got %v", err)
	}
	if _, err := svc.Upsert(ctx, accountdomain.UpsertProfileRequest{OwnerID: "not-a-number"}); !errors.Is(err, accountdomain.ErrInvalidOwner) {
		t.Fatalf("expected invalid owner, got %v", err)
	}
}

func TestGet_MissingProfileReturnsNil(t *testing.T) {
	svc := newTestService(t, 1.5)

	profile, err := svc.Get(context.Background(), "307")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile != nil {
		t.Fatalf("expected nil profile, got %+v", profile)
	}
}
