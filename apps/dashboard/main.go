package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/authorization"
	"github.com/fanflet/fanflet/internal/clock"
	"github.com/fanflet/fanflet/internal/config"
	"github.com/fanflet/fanflet/internal/entitlement"
	"github.com/fanflet/fanflet/internal/featureflag"
	"github.com/fanflet/fanflet/internal/observability"
	"github.com/fanflet/fanflet/internal/plan"
	"github.com/fanflet/fanflet/internal/ratelimit"
	"github.com/fanflet/fanflet/internal/server"
	"github.com/fanflet/fanflet/internal/speaker"
	"github.com/fanflet/fanflet/internal/subscription"
	"github.com/fanflet/fanflet/pkg/db"
	"go.uber.org/fx"
)

// The dashboard process only answers entitlement checks for signed-in
// speakers. Schema and catalog are owned by the admin process.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		speaker.Module,
		featureflag.Module,
		plan.Module,
		subscription.Module,
		entitlement.Module,
		authorization.Module,
		ratelimit.Module,

		server.Module,
		fx.Invoke(func(s *server.Server) {
			s.RegisterDashboardRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
