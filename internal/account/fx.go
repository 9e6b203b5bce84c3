package account

import (
	"github.com/constructia/billing/internal/account/repository"
	"github.com/constructia/billing/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
