package mandate

import (
	"github.com/constructia/billing/internal/mandate/repository"
	"github.com/constructia/billing/internal/mandate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("mandate.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
