package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/vectcut/credits/internal/account/domain"
	catalogdomain "github.com/vectcut/credits/internal/catalog/domain"
	"github.com/vectcut/credits/internal/config"
	ledgerdomain "github.com/vectcut/credits/internal/ledger/domain"
	statisticsdomain "github.com/vectcut/credits/internal/statistics/domain"
	"go.uber.org/zap"
)

type ledgerStub struct {
	spendResult ledgerdomain.SpendResult
	spendErr    error
	balance     *ledgerdomain.Balance

	lastSpend ledgerdomain.SpendRequest
}

func (l *ledgerStub) GetOrCreate(ctx context.Context, ownerID string) (*ledgerdomain.Balance, error) {
	return l.balance, nil
}
func (l *ledgerStub) Spend(ctx context.Context, req ledgerdomain.SpendRequest) (ledgerdomain.SpendResult, error) {
	l.lastSpend = req
	return l.spendResult, l.spendErr
}
func (l *ledgerStub) Add(ctx context.Context, req ledgerdomain.AddRequest) (ledgerdomain.AddResult, error) {
	return ledgerdomain.AddResult{Balance: 600, TotalEarned: 600}, nil
}
func (l *ledgerStub) TrackRealCostOnly(ctx context.Context, req ledgerdomain.TrackRequest) (*ledgerdomain.Transaction, error) {
	return &ledgerdomain.Transaction{}, nil
}
func (l *ledgerStub) CheckBalance(ctx context.Context, ownerID string, required int64) (ledgerdomain.CheckBalanceResult, error) {
	has := l.balance != nil && l.balance.Balance >= required
	result := ledgerdomain.CheckBalanceResult{HasEnough: has, Required: required}
	if l.balance != nil {
		result.Balance = l.balance.Balance
	}
	return result, nil
}
func (l *ledgerStub) History(ctx context.Context, req ledgerdomain.HistoryRequest) (ledgerdomain.HistoryResponse, error) {
	return ledgerdomain.HistoryResponse{Transactions: []ledgerdomain.Transaction{}}, nil
}

type catalogStub struct{}

func (c *catalogStub) CreditCost(actionType, variant string) int64 { return 27 }
func (c *catalogStub) RealCost(ctx context.Context, actionType, provider, model, variant string) float64 {
	return 0.24
}
func (c *catalogStub) ListRates(ctx context.Context) ([]catalogdomain.CostRate, error) {
	return []catalogdomain.CostRate{}, nil
}
func (c *catalogStub) UpsertRate(ctx context.Context, req catalogdomain.UpsertRateRequest) (*catalogdomain.CostRate, error) {
	if req.ActionType == "" {
		return nil, catalogdomain.ErrInvalidActionType
	}
	return &catalogdomain.CostRate{ActionType: req.ActionType}, nil
}

type accountStub struct{}

func (a *accountStub) CostMultiplier(ctx context.Context, ownerID string) (float64, error) {
	return 1.5, nil
}
func (a *accountStub) Get(ctx context.Context, ownerID string) (*accountdomain.Profile, error) {
	return nil, nil
}
func (a *accountStub) Upsert(ctx context.Context, req accountdomain.UpsertProfileRequest) (*accountdomain.Profile, error) {
	return &accountdomain.Profile{CostMultiplier: 1.5}, nil
}

type statsStub struct{}

func (s *statsStub) UserStatistics(ctx context.Context, ownerID string) (*statisticsdomain.Statistics, error) {
	return &statisticsdomain.Statistics{CostMultiplier: 1.5}, nil
}
func (s *statsStub) CostMultiplier(ctx context.Context, ownerID string) (float64, error) {
	return 1.5, nil
}

func newTestServer(t *testing.T, ledgerSvc *ledgerStub) *gin.Engine {
	t.Helper()

	engine := NewEngine(zap.NewNop())
	srv := New(Params{
		Log:        zap.NewNop(),
		Cfg:        config.Config{},
		LedgerSvc:  ledgerSvc,
		CatalogSvc: &catalogStub{},
		AccountSvc: &accountStub{},
		StatsSvc:   &statsStub{},
	})
	RegisterRoutes(engine, srv)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestSpend_RequiresOwnerHeader(t *testing.T) {
	engine := newTestServer(t, &ledgerStub{})

	rec := doJSON(t, engine, http.MethodPost, "/v1/credits/spend", "", ledgerdomain.SpendRequest{Amount: 27})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodPost, "/v1/credits/spend", "not-a-number", ledgerdomain.SpendRequest{Amount: 27})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSpend_OwnerComesFromHeaderNotBody(t *testing.T) {
	ledgerSvc := &ledgerStub{spendResult: ledgerdomain.SpendResult{Success: true, Balance: 73}}
	engine := newTestServer(t, ledgerSvc)

	rec := doJSON(t, engine, http.MethodPost, "/v1/credits/spend", "42", map[string]any{
		"owner_id": "999",
		"amount":   27,
		"type":     "image",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ledgerSvc.lastSpend.OwnerID != "42" {
		t.Fatalf("expected owner from header, got %q", ledgerSvc.lastSpend.OwnerID)
	}
}

func TestSpend_InsufficientMapsToPaymentRequired(t *testing.T) {
	ledgerSvc := &ledgerStub{spendResult: ledgerdomain.SpendResult{
		Success:  false,
		Balance:  10,
		Required: 27,
		Error:    ledgerdomain.ErrInsufficientCredits.Error(),
	}}
	engine := newTestServer(t, ledgerSvc)

	rec := doJSON(t, engine, http.MethodPost, "/v1/credits/spend", "42", map[string]any{
		"amount": 27,
		"type":   "image",
	})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}

	var result ledgerdomain.SpendResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Success || result.Balance != 10 {
		t.Fatalf("unexpected body: %+v", result)
	}
}

func TestSpend_ValidationErrorMapsToBadRequest(t *testing.T) {
	ledgerSvc := &ledgerStub{spendErr: ledgerdomain.ErrInvalidAmount}
	engine := newTestServer(t, ledgerSvc)

	rec := doJSON(t, engine, http.MethodPost, "/v1/credits/spend", "42", map[string]any{
		"amount": -1,
		"type":   "image",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Type != "validation_error" {
		t.Fatalf("unexpected error type: %+v", payload.Error)
	}
	if len(payload.Error.Errors) != 1 || payload.Error.Errors[0].Code != "invalid_amount" {
		t.Fatalf("unexpected error detail: %+v", payload.Error.Errors)
	}
}

func TestBalance_WithAndWithoutRequiredQuery(t *testing.T) {
	ledgerSvc := &ledgerStub{balance: &ledgerdomain.Balance{ID: 1, OwnerID: 42, Balance: 100}}
	engine := newTestServer(t, ledgerSvc)

	rec := doJSON(t, engine, http.MethodGet, "/v1/credits/balance", "42", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var balance ledgerdomain.Balance
	if err := json.Unmarshal(rec.Body.Bytes(), &balance); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if balance.Balance != 100 {
		t.Fatalf("unexpected balance: %+v", balance)
	}

	rec = doJSON(t, engine, http.MethodGet, "/v1/credits/balance?required=27", "42", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var check ledgerdomain.CheckBalanceResult
	if err := json.Unmarshal(rec.Body.Bytes(), &check); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !check.HasEnough || check.Required != 27 {
		t.Fatalf("unexpected check result: %+v", check)
	}

	rec = doJSON(t, engine, http.MethodGet, "/v1/credits/balance?required=abc", "42", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpsertCostRate_ValidationError(t *testing.T) {
	engine := newTestServer(t, &ledgerStub{})

	rec := doJSON(t, engine, http.MethodPut, "/v1/admin/cost-rates", "42", map[string]any{
		"real_cost": 0.5,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthSkipsOwnerMiddleware(t *testing.T) {
	engine := newTestServer(t, &ledgerStub{})

	rec := doJSON(t, engine, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
