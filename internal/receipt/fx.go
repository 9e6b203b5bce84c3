package receipt

import (
	"github.com/constructia/billing/internal/receipt/repository"
	"github.com/constructia/billing/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
