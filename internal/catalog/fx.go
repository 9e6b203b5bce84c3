package catalog

import (
	"github.com/constructia/billing/internal/catalog/repository"
	"github.com/constructia/billing/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
