package checkout

import (
	"github.com/constructia/billing/internal/checkout/repository"
	"github.com/constructia/billing/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
