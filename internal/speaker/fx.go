package speaker

import (
	"github.com/fanflet/fanflet/internal/speaker/repository"
	"github.com/fanflet/fanflet/internal/speaker/service"
	"go.uber.org/fx"
)

var Module = fx.Module("speaker.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
