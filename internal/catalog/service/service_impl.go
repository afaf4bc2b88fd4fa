package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vectcut/credits/internal/cache"
	catalogdomain "github.com/vectcut/credits/internal/catalog/domain"
	"github.com/vectcut/credits/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Catalog rows change rarely; a long TTL keeps the hot path off the database.
const ratesCacheTTL = time.Hour

const ratesCacheKey = "cost_rates:active"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    catalogdomain.Repository
	Pricing *config.PricingConfigHolder `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    catalogdomain.Repository
	pricing *config.PricingConfigHolder
	rates   cache.Cache[string, []catalogdomain.CostRate]
}

func New(p Params) catalogdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("catalog.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		pricing: p.Pricing,
		rates:   cache.NewTTLCache[string, []catalogdomain.CostRate](),
	}
}

func (s *Service) CreditCost(actionType, variant string) int64 {
	actionType = strings.ToLower(strings.TrimSpace(actionType))
	variant = strings.ToLower(strings.TrimSpace(variant))

	if s.pricing != nil {
		for _, override := range s.pricing.Current().CreditCosts {
			if strings.EqualFold(override.ActionType, actionType) &&
				strings.EqualFold(override.Variant, variant) {
				return override.Credits
			}
		}
	}

	if variants, ok := defaultCreditCostVariants[actionType]; ok {
		if cost, ok := variants[variant]; ok {
			return cost
		}
	}
	return defaultCreditCosts[actionType]
}

func (s *Service) RealCost(ctx context.Context, actionType, provider, model, variant string) float64 {
	actionType = strings.ToLower(strings.TrimSpace(actionType))
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.ToLower(strings.TrimSpace(model))
	variant = strings.ToLower(strings.TrimSpace(variant))

	if cost, ok := s.overrideRealCost(ctx, actionType, provider, model, variant); ok {
		return cost
	}
	return defaultRealCost(actionType, provider, model, variant)
}

// overrideRealCost resolves admin rows through the same exact-match tiers as
// the defaults. A storage failure degrades to the compiled-in table.
func (s *Service) overrideRealCost(ctx context.Context, actionType, provider, model, variant string) (float64, bool) {
	rates, ok := s.rates.Get(ratesCacheKey)
	if !ok {
		loaded, err := s.repo.ListActive(ctx, s.db)
		if err != nil {
			s.log.Warn("cost rate lookup degraded to defaults", zap.Error(err))
			return 0, false
		}
		rates = loaded
		s.rates.Set(ratesCacheKey, rates, ratesCacheTTL)
	}

	tiers := [][3]string{
		{provider, model, variant},
		{provider, model, ""},
		{provider, "", ""},
		{"", "", ""},
	}
	for _, tier := range tiers {
		for _, rate := range rates {
			if rate.ActionType == actionType &&
				rate.Provider == tier[0] &&
				rate.Model == tier[1] &&
				rate.Variant == tier[2] {
				return rate.RealCost, true
			}
		}
	}
	return 0, false
}

func (s *Service) ListRates(ctx context.Context) ([]catalogdomain.CostRate, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) UpsertRate(ctx context.Context, req catalogdomain.UpsertRateRequest) (*catalogdomain.CostRate, error) {
	actionType := strings.ToLower(strings.TrimSpace(req.ActionType))
	if actionType == "" {
		return nil, catalogdomain.ErrInvalidActionType
	}
	if req.CreditCost < 0 {
		return nil, catalogdomain.ErrInvalidCreditCost
	}
	if req.RealCost < 0 {
		return nil, catalogdomain.ErrInvalidRealCost
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	rate := &catalogdomain.CostRate{
		ID:         s.genID.Generate(),
		ActionType: actionType,
		Provider:   strings.ToLower(strings.TrimSpace(req.Provider)),
		Model:      strings.ToLower(strings.TrimSpace(req.Model)),
		Variant:    strings.ToLower(strings.TrimSpace(req.Variant)),
		CreditCost: req.CreditCost,
		RealCost:   req.RealCost,
		Active:     active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Upsert(ctx, s.db, rate); err != nil {
		return nil, err
	}

	// Drop the cached rows so the override takes effect on the next lookup.
	s.rates.Delete(ratesCacheKey)

	return rate, nil
}
