package subscription

import (
	"github.com/fanflet/fanflet/internal/subscription/repository"
	"github.com/fanflet/fanflet/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
