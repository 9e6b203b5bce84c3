package payment

import (
	"github.com/constructia/billing/internal/payment/repository"
	"github.com/constructia/billing/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
