package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vectcut/credits/internal/cache"
	catalogdomain "github.com/vectcut/credits/internal/catalog/domain"
	"github.com/vectcut/credits/internal/config"
	ledgerdomain "github.com/vectcut/credits/internal/ledger/domain"
	"github.com/vectcut/credits/pkg/db/option"
	"github.com/vectcut/credits/pkg/db/pagination"
	"github.com/vectcut/credits/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Cfg         config.Config
	Repo        ledgerdomain.Repository
	CatalogSvc  catalogdomain.Service
	LedgerCache cache.LedgerCache `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID           *snowflake.Node
	repo            ledgerdomain.Repository
	catalogSvc      catalogdomain.Service
	txnStore        repository.Repository[ledgerdomain.Transaction]
	ledgerCache     cache.LedgerCache
	startingBalance int64
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("ledger.service"),

		genID:           p.GenID,
		repo:            p.Repo,
		catalogSvc:      p.CatalogSvc,
		txnStore:        repository.ProvideStore[ledgerdomain.Transaction](p.DB),
		ledgerCache:     p.LedgerCache,
		startingBalance: p.Cfg.StartingBalance,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, ownerID string) (*ledgerdomain.Balance, error) {
	id, err := s.parseOwnerID(ownerID)
	if err != nil {
		return nil, err
	}

	if s.ledgerCache != nil {
		if cached, ok := s.ledgerCache.GetBalance(id.String()); ok {
			return cached, nil
		}
	}

	balance, err := s.ensureBalance(ctx, id)
	if err != nil {
		// Reads degrade when storage is down: serve the last known copy
		// flagged offline. The stale copy never enters the fresh cache.
		if s.ledgerCache != nil {
			if stale, ok := s.ledgerCache.GetStaleBalance(id.String()); ok {
				s.log.Warn("balance read degraded", zap.String("owner_id", id.String()), zap.Error(err))
				degraded := *stale
				degraded.Offline = true
				return &degraded, nil
			}
		}
		return nil, err
	}

	if s.ledgerCache != nil {
		s.ledgerCache.SetBalance(id.String(), balance)
	}
	return balance, nil
}

func (s *Service) Spend(ctx context.Context, req ledgerdomain.SpendRequest) (ledgerdomain.SpendResult, error) {
	id, err := s.parseOwnerID(req.OwnerID)
	if err != nil {
		return ledgerdomain.SpendResult{}, err
	}
	if req.Amount < 0 {
		return ledgerdomain.SpendResult{}, ledgerdomain.ErrInvalidAmount
	}
	if !ledgerdomain.ValidTransactionType(req.Type) {
		return ledgerdomain.SpendResult{}, ledgerdomain.ErrInvalidType
	}
	if req.RealCostOverride != nil && *req.RealCostOverride < 0 {
		return ledgerdomain.SpendResult{}, ledgerdomain.ErrInvalidRealCost
	}

	projectID, err := parseOptionalID(req.ProjectID)
	if err != nil {
		return ledgerdomain.SpendResult{}, ledgerdomain.ErrInvalidProject
	}

	balance, err := s.ensureBalance(ctx, id)
	if err != nil {
		return ledgerdomain.SpendResult{}, err
	}

	// Zero-amount spends are an allowed no-op: nothing to debit, nothing to
	// record.
	if req.Amount == 0 {
		return ledgerdomain.SpendResult{Success: true, Balance: balance.Balance}, nil
	}

	realCost := s.resolveRealCost(ctx, req)

	debited := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		ok, err := s.repo.DebitBalance(ctx, tx, id, req.Amount, realCost, now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		debited = true

		txn := &ledgerdomain.Transaction{
			ID:          s.genID.Generate(),
			OwnerID:     id,
			Amount:      -req.Amount,
			Type:        req.Type,
			Provider:    strings.ToLower(strings.TrimSpace(req.Provider)),
			Model:       strings.ToLower(strings.TrimSpace(req.Model)),
			RealCost:    &realCost,
			ProjectID:   projectID,
			Description: strings.TrimSpace(req.Description),
			Metadata:    req.Metadata,
			CreatedAt:   now,
		}
		return s.repo.InsertTransaction(ctx, tx, txn)
	})
	if err != nil {
		return ledgerdomain.SpendResult{}, fmt.Errorf("%w: %v", ledgerdomain.ErrStorageUnavailable, err)
	}

	if !debited {
		current, err := s.repo.FindBalance(ctx, s.db, id)
		if err != nil {
			return ledgerdomain.SpendResult{}, err
		}
		result := ledgerdomain.SpendResult{
			Success:  false,
			Required: req.Amount,
			Error:    ledgerdomain.ErrInsufficientCredits.Error(),
		}
		if current != nil {
			result.Balance = current.Balance
		}
		return result, nil
	}

	s.invalidateOwner(id)

	current, err := s.repo.FindBalance(ctx, s.db, id)
	if err != nil {
		return ledgerdomain.SpendResult{}, err
	}

	result := ledgerdomain.SpendResult{
		Success:  true,
		RealCost: realCost,
	}
	if current != nil {
		result.Balance = current.Balance
		if s.ledgerCache != nil {
			s.ledgerCache.SetBalance(id.String(), current)
		}
	}
	return result, nil
}

func (s *Service) Add(ctx context.Context, req ledgerdomain.AddRequest) (ledgerdomain.AddResult, error) {
	id, err := s.parseOwnerID(req.OwnerID)
	if err != nil {
		return ledgerdomain.AddResult{}, err
	}
	if req.Amount < 0 {
		return ledgerdomain.AddResult{}, ledgerdomain.ErrInvalidAmount
	}
	if !ledgerdomain.ValidTransactionType(req.Type) {
		return ledgerdomain.AddResult{}, ledgerdomain.ErrInvalidType
	}

	balance, err := s.ensureBalance(ctx, id)
	if err != nil {
		return ledgerdomain.AddResult{}, err
	}

	if req.Amount == 0 {
		return ledgerdomain.AddResult{
			Balance:     balance.Balance,
			TotalEarned: balance.TotalEarned,
		}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := s.repo.CreditBalance(ctx, tx, id, req.Amount, now); err != nil {
			return err
		}
		txn := &ledgerdomain.Transaction{
			ID:          s.genID.Generate(),
			OwnerID:     id,
			Amount:      req.Amount,
			Type:        req.Type,
			Description: strings.TrimSpace(req.Description),
			CreatedAt:   now,
		}
		return s.repo.InsertTransaction(ctx, tx, txn)
	})
	if err != nil {
		return ledgerdomain.AddResult{}, fmt.Errorf("%w: %v", ledgerdomain.ErrStorageUnavailable, err)
	}

	s.invalidateOwner(id)

	current, err := s.repo.FindBalance(ctx, s.db, id)
	if err != nil {
		return ledgerdomain.AddResult{}, err
	}
	result := ledgerdomain.AddResult{}
	if current != nil {
		result.Balance = current.Balance
		result.TotalEarned = current.TotalEarned
		if s.ledgerCache != nil {
			s.ledgerCache.SetBalance(id.String(), current)
		}
	}
	return result, nil
}

func (s *Service) TrackRealCostOnly(ctx context.Context, req ledgerdomain.TrackRequest) (*ledgerdomain.Transaction, error) {
	id, err := s.parseOwnerID(req.OwnerID)
	if err != nil {
		return nil, err
	}
	if req.RealCost < 0 {
		return nil, ledgerdomain.ErrInvalidRealCost
	}
	if !ledgerdomain.ValidTransactionType(req.Type) {
		return nil, ledgerdomain.ErrInvalidType
	}

	projectID, err := parseOptionalID(req.ProjectID)
	if err != nil {
		return nil, ledgerdomain.ErrInvalidProject
	}

	if _, err := s.ensureBalance(ctx, id); err != nil {
		return nil, err
	}

	realCost := req.RealCost
	metadata := req.Metadata
	metadata.Prepaid = true

	var txn *ledgerdomain.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := s.repo.AddRealCost(ctx, tx, id, realCost, now); err != nil {
			return err
		}
		txn = &ledgerdomain.Transaction{
			ID:          s.genID.Generate(),
			OwnerID:     id,
			Amount:      0,
			Type:        req.Type,
			Provider:    strings.ToLower(strings.TrimSpace(req.Provider)),
			Model:       strings.ToLower(strings.TrimSpace(req.Model)),
			RealCost:    &realCost,
			ProjectID:   projectID,
			Description: strings.TrimSpace(req.Description),
			Metadata:    metadata,
			CreatedAt:   now,
		}
		return s.repo.InsertTransaction(ctx, tx, txn)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledgerdomain.ErrStorageUnavailable, err)
	}

	s.invalidateOwner(id)
	return txn, nil
}

func (s *Service) CheckBalance(ctx context.Context, ownerID string, required int64) (ledgerdomain.CheckBalanceResult, error) {
	id, err := s.parseOwnerID(ownerID)
	if err != nil {
		return ledgerdomain.CheckBalanceResult{}, err
	}
	if required < 0 {
		return ledgerdomain.CheckBalanceResult{}, ledgerdomain.ErrInvalidAmount
	}

	balance, err := s.GetOrCreate(ctx, ownerID)
	if err != nil {
		// Storage is down and no stale copy exists. Serve zeros flagged
		// offline; writes never take this path.
		s.log.Warn("balance read degraded", zap.String("owner_id", id.String()), zap.Error(err))
		return ledgerdomain.CheckBalanceResult{
			Required: required,
			Offline:  true,
		}, nil
	}

	return ledgerdomain.CheckBalanceResult{
		HasEnough: balance.Balance >= required,
		Balance:   balance.Balance,
		Required:  required,
		Offline:   balance.Offline,
	}, nil
}

func (s *Service) History(ctx context.Context, req ledgerdomain.HistoryRequest) (ledgerdomain.HistoryResponse, error) {
	id, err := s.parseOwnerID(req.OwnerID)
	if err != nil {
		return ledgerdomain.HistoryResponse{}, err
	}

	filter := &ledgerdomain.Transaction{OwnerID: id}
	if req.Type != "" {
		if !ledgerdomain.ValidTransactionType(req.Type) {
			return ledgerdomain.HistoryResponse{}, ledgerdomain.ErrInvalidType
		}
		filter.Type = req.Type
	}
	if req.ProjectID != "" {
		projectID, err := parseOptionalID(req.ProjectID)
		if err != nil {
			return ledgerdomain.HistoryResponse{}, ledgerdomain.ErrInvalidProject
		}
		filter.ProjectID = projectID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.txnStore.Find(ctx, filter,
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return ledgerdomain.HistoryResponse{}, err
	}
	return buildHistoryResponse(items, pageSize)
}

func (s *Service) ensureBalance(ctx context.Context, id snowflake.ID) (*ledgerdomain.Balance, error) {
	balance, err := s.repo.FindBalance(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if balance != nil {
		return balance, nil
	}

	now := time.Now().UTC()
	starting := s.startingBalance
	if starting < 0 {
		starting = 0
	}
	seed := &ledgerdomain.Balance{
		ID:          s.genID.Generate(),
		OwnerID:     id,
		Balance:     starting,
		TotalEarned: starting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Conditional insert keeps concurrent first accesses down to one row;
	// the loser of the race reads the winner's row.
	if _, err := s.repo.InsertBalance(ctx, s.db, seed); err != nil {
		return nil, err
	}
	balance, err = s.repo.FindBalance(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *Service) resolveRealCost(ctx context.Context, req ledgerdomain.SpendRequest) float64 {
	if req.RealCostOverride != nil {
		return *req.RealCostOverride
	}
	if s.catalogSvc == nil {
		return 0
	}
	return s.catalogSvc.RealCost(ctx, string(req.Type), req.Provider, req.Model, req.Variant)
}

func (s *Service) invalidateOwner(id snowflake.ID) {
	if s.ledgerCache != nil {
		s.ledgerCache.InvalidateOwner(id.String())
	}
}

func (s *Service) parseOwnerID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, ledgerdomain.ErrInvalidOwner
	}
	return id, nil
}

func parseOptionalID(value string) (snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	id, err := snowflake.ParseString(value)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func buildHistoryResponse(items []*ledgerdomain.Transaction, pageSize int32) (ledgerdomain.HistoryResponse, error) {
	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(txn *ledgerdomain.Transaction) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        txn.ID.String(),
			CreatedAt: txn.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	transactions := make([]ledgerdomain.Transaction, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		transactions = append(transactions, *item)
	}

	resp := ledgerdomain.HistoryResponse{
		Transactions: transactions,
	}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
