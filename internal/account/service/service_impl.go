package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/vectcut/credits/internal/account/domain"
	"github.com/vectcut/credits/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
}

type Service struct {
	db                *gorm.DB
	log               *zap.Logger
	genID             *snowflake.Node
	defaultMultiplier float64
}

func New(p Params) accountdomain.Service {
	multiplier := p.Cfg.DefaultCostMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	return &Service{
		db:                p.DB,
		log:               p.Log.Named("account.service"),
		genID:             p.GenID,
		defaultMultiplier: multiplier,
	}
}

func (s *Service) CostMultiplier(ctx context.Context, ownerID string) (float64, error) {
	profile, err := s.Get(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return s.defaultMultiplier, nil
	}
	if profile.Privileged {
		return 1.0, nil
	}
	return profile.CostMultiplier, nil
}

func (s *Service) Get(ctx context.Context, ownerID string) (*accountdomain.Profile, error) {
	id, err := parseOwnerID(ownerID)
	if err != nil {
		return nil, err
	}

	var profile accountdomain.Profile
	dbErr := s.db.WithContext(ctx).
		Where("owner_id = ?", id).
		First(&profile).Error
	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbErr
	}
	return &profile, nil
}

func (s *Service) Upsert(ctx context.Context, req accountdomain.UpsertProfileRequest) (*accountdomain.Profile, error) {
	id, err := parseOwnerID(req.OwnerID)
	if err != nil {
		return nil, err
	}

	multiplier := s.defaultMultiplier
	if req.CostMultiplier != nil {
		multiplier = *req.CostMultiplier
	}
	if multiplier < 1 {
		return nil, accountdomain.ErrInvalidMultiplier
	}

	privileged := false
	if req.Privileged != nil {
		privileged = *req.Privileged
	}

	now := time.Now().UTC()
	profile := &accountdomain.Profile{
		ID:             s.genID.Generate(),
		OwnerID:        id,
		CostMultiplier: multiplier,
		Privileged:     privileged,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cost_multiplier", "privileged", "updated_at"}),
	}).Create(profile).Error; err != nil {
		return nil, err
	}

	return s.Get(ctx, req.OwnerID)
}

func parseOwnerID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, accountdomain.ErrInvalidOwner
	}
	return id, nil
}
