package entitlement

import (
	"github.com/fanflet/fanflet/internal/entitlement/service"
	"github.com/fanflet/fanflet/internal/entitlement/store"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(store.New),
	fx.Provide(service.New),
)
