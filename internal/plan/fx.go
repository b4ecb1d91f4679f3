package plan

import (
	"github.com/fanflet/fanflet/internal/plan/repository"
	"github.com/fanflet/fanflet/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
