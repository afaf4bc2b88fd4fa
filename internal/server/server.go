package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vectcut/credits/internal/account"
	accountdomain "github.com/vectcut/credits/internal/account/domain"
	"github.com/vectcut/credits/internal/catalog"
	catalogdomain "github.com/vectcut/credits/internal/catalog/domain"
	"github.com/vectcut/credits/internal/config"
	"github.com/vectcut/credits/internal/ledger"
	ledgerdomain "github.com/vectcut/credits/internal/ledger/domain"
	"github.com/vectcut/credits/internal/ratelimit"
	"github.com/vectcut/credits/internal/statistics"
	statisticsdomain "github.com/vectcut/credits/internal/statistics/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	ledger.Module,
	catalog.Module,
	account.Module,
	statistics.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Provide(New),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	LedgerSvc  ledgerdomain.Service
	CatalogSvc catalogdomain.Service
	AccountSvc accountdomain.Service
	StatsSvc   statisticsdomain.Service
	Guard      *ratelimit.SpendGuard `optional:"true"`
}

type Server struct {
	log        *zap.Logger
	cfg        config.Config
	ledgerSvc  ledgerdomain.Service
	catalogSvc catalogdomain.Service
	accountSvc accountdomain.Service
	statsSvc   statisticsdomain.Service
	guard      *ratelimit.SpendGuard
}

func New(p Params) *Server {
	return &Server{
		log:        p.Log.Named("http.server"),
		cfg:        p.Cfg,
		ledgerSvc:  p.LedgerSvc,
		catalogSvc: p.CatalogSvc,
		accountSvc: p.AccountSvc,
		statsSvc:   p.StatsSvc,
		guard:      p.Guard,
	}
}

func NewEngine(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(log.Named("http.access")))
	engine.Use(ErrorHandlingMiddleware())
	return engine
}

func RegisterRoutes(engine *gin.Engine, s *Server) {
	engine.GET("/health", s.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1", OwnerMiddleware())
	{
		credits := v1.Group("/credits")
		credits.POST("/spend", s.Spend)
		credits.POST("/add", s.Add)
		credits.POST("/track-cost", s.TrackCost)
		credits.GET("/balance", s.Balance)
		credits.GET("/transactions", s.Transactions)
		credits.GET("/statistics", s.Statistics)

		admin := v1.Group("/admin")
		admin.GET("/cost-rates", s.ListCostRates)
		admin.PUT("/cost-rates", s.UpsertCostRate)
		admin.GET("/profiles/:owner_id", s.GetProfile)
		admin.PUT("/profiles/:owner_id", s.UpsertProfile)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func run(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
