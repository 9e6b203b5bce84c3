package activity

import (
	"github.com/constructia/billing/internal/activity/repository"
	"github.com/constructia/billing/internal/activity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
