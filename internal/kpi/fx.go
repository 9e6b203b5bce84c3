package kpi

import (
	"github.com/constructia/billing/internal/kpi/repository"
	"github.com/constructia/billing/internal/kpi/service"
	"go.uber.org/fx"
)

var Module = fx.Module("kpi.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
