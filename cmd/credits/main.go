package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/vectcut/credits/internal/cache"
	"github.com/vectcut/credits/internal/config"
	"github.com/vectcut/credits/internal/migration"
	"github.com/vectcut/credits/internal/server"
	"github.com/vectcut/credits/pkg/db"
	"github.com/vectcut/credits/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(1)
		}),
		fx.Provide(config.NewPricingConfigHolder),
		fx.Provide(cache.NewLedgerCache),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}
