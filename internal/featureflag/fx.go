package featureflag

import (
	"github.com/fanflet/fanflet/internal/featureflag/repository"
	"github.com/fanflet/fanflet/internal/featureflag/service"
	"go.uber.org/fx"
)

var Module = fx.Module("featureflag.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
