package catalog

import (
	"github.com/vectcut/credits/internal/catalog/repository"
	"github.com/vectcut/credits/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
