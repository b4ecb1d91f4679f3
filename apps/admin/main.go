package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/authorization"
	"github.com/fanflet/fanflet/internal/clock"
	"github.com/fanflet/fanflet/internal/config"
	"github.com/fanflet/fanflet/internal/entitlement"
	"github.com/fanflet/fanflet/internal/featureflag"
	"github.com/fanflet/fanflet/internal/migration"
	"github.com/fanflet/fanflet/internal/observability"
	"github.com/fanflet/fanflet/internal/plan"
	"github.com/fanflet/fanflet/internal/ratelimit"
	"github.com/fanflet/fanflet/internal/seed"
	"github.com/fanflet/fanflet/internal/server"
	"github.com/fanflet/fanflet/internal/speaker"
	"github.com/fanflet/fanflet/internal/subscription"
	"github.com/fanflet/fanflet/internal/tenantstats"
	"github.com/fanflet/fanflet/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Admin owns the schema, the catalog and the tenant gauges.
		speaker.Module,
		featureflag.Module,
		plan.Module,
		subscription.Module,
		entitlement.Module,
		authorization.Module,
		ratelimit.Module,
		seed.Module,
		migration.Module,
		tenantstats.Module,

		server.Module,
		fx.Invoke(func(s *server.Server) {
			s.RegisterAdminRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}
