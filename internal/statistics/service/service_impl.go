package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/vectcut/credits/internal/account/domain"
	"github.com/vectcut/credits/internal/cache"
	ledgerdomain "github.com/vectcut/credits/internal/ledger/domain"
	statisticsdomain "github.com/vectcut/credits/internal/statistics/domain"
	"github.com/vectcut/credits/pkg/db/option"
	"github.com/vectcut/credits/pkg/db/pagination"
	"github.com/vectcut/credits/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The scan walks the transaction log in pages so one owner with a huge
// history cannot pin a request. 20 pages of 500 covers 10k transactions;
// anything beyond that is truncated and logged.
const (
	scanPageSize = 500
	scanMaxPages = 20
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	LedgerSvc   ledgerdomain.Service
	AccountSvc  accountdomain.Service
	LedgerCache cache.LedgerCache `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	ledgerSvc   ledgerdomain.Service
	accountSvc  accountdomain.Service
	txnStore    repository.Repository[ledgerdomain.Transaction]
	ledgerCache cache.LedgerCache
}

func New(p Params) statisticsdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("statistics.service"),
		ledgerSvc:   p.LedgerSvc,
		accountSvc:  p.AccountSvc,
		txnStore:    repository.ProvideStore[ledgerdomain.Transaction](p.DB),
		ledgerCache: p.LedgerCache,
	}
}

func (s *Service) UserStatistics(ctx context.Context, ownerID string) (*statisticsdomain.Statistics, error) {
	id, err := parseOwnerID(ownerID)
	if err != nil {
		return nil, err
	}

	if s.ledgerCache != nil {
		if cached, ok := s.ledgerCache.GetStatistics(id.String()); ok {
			return cached, nil
		}
	}

	multiplier, err := s.accountSvc.CostMultiplier(ctx, id.String())
	if err != nil {
		return s.degraded(id, err)
	}

	balance, err := s.ledgerSvc.GetOrCreate(ctx, id.String())
	if err != nil {
		return s.degraded(id, err)
	}

	stats := &statisticsdomain.Statistics{
		Balance:        *balance,
		ByType:         make(map[string]statisticsdomain.GroupStat),
		ByProvider:     make(map[string]statisticsdomain.GroupStat),
		ByProject:      make(map[string]statisticsdomain.GroupStat),
		CostMultiplier: multiplier,
	}
	stats.Balance.TotalRealCost *= multiplier

	if err := s.scanTransactions(ctx, id, multiplier, stats); err != nil {
		return s.degraded(id, err)
	}

	if s.ledgerCache != nil {
		s.ledgerCache.SetStatistics(id.String(), stats)
	}
	return stats, nil
}

// degraded serves the last computed statistics flagged offline when storage
// reads fail. With no stale copy the error surfaces.
func (s *Service) degraded(id snowflake.ID, cause error) (*statisticsdomain.Statistics, error) {
	if s.ledgerCache == nil {
		return nil, cause
	}
	stale, ok := s.ledgerCache.GetStaleStatistics(id.String())
	if !ok {
		return nil, cause
	}
	s.log.Warn("statistics read degraded",
		zap.String("owner_id", id.String()),
		zap.Error(cause),
	)
	copied := *stale
	copied.Offline = true
	return &copied, nil
}

func (s *Service) CostMultiplier(ctx context.Context, ownerID string) (float64, error) {
	id, err := parseOwnerID(ownerID)
	if err != nil {
		return 0, err
	}
	return s.accountSvc.CostMultiplier(ctx, id.String())
}

func (s *Service) scanTransactions(ctx context.Context, id snowflake.ID, multiplier float64, stats *statisticsdomain.Statistics) error {
	filter := &ledgerdomain.Transaction{OwnerID: id}
	pageToken := ""

	for page := 0; page < scanMaxPages; page++ {
		items, err := s.txnStore.Find(ctx, filter,
			option.ApplyPagination(pagination.Pagination{
				PageToken: pageToken,
				PageSize:  scanPageSize,
			}),
			option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
		)
		if err != nil {
			return err
		}

		hasMore := len(items) > scanPageSize
		if hasMore {
			items = items[:scanPageSize]
		}

		for _, txn := range items {
			if txn == nil {
				continue
			}
			accumulate(stats, txn, multiplier)
		}

		if !hasMore || len(items) == 0 {
			return nil
		}

		last := items[len(items)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
		pageToken = token
	}

	s.log.Warn("statistics scan truncated",
		zap.String("owner_id", id.String()),
		zap.Int("max_pages", scanMaxPages),
	)
	return nil
}

func accumulate(stats *statisticsdomain.Statistics, txn *ledgerdomain.Transaction, multiplier float64) {
	realCost := 0.0
	if txn.RealCost != nil {
		realCost = *txn.RealCost * multiplier
	}

	bump := func(group map[string]statisticsdomain.GroupStat, key string) {
		if key == "" {
			return
		}
		entry := group[key]
		entry.Count++
		entry.CreditAmount += txn.Amount
		entry.RealCost += realCost
		group[key] = entry
	}

	bump(stats.ByType, string(txn.Type))
	bump(stats.ByProvider, txn.Provider)
	if txn.ProjectID != 0 {
		bump(stats.ByProject, txn.ProjectID.String())
	}

	switch {
	case txn.Metadata.IsRegeneration:
		stats.TotalRegenerations++
	case txn.Amount != 0:
		stats.TotalGenerations++
	}
}

func parseOwnerID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, statisticsdomain.ErrInvalidOwner
	}
	return id, nil
}
