package migration

import (
	"context"

	"github.com/fanflet/fanflet/internal/config"
	"github.com/fanflet/fanflet/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
		if err := Migrate(conn); err != nil {
			return err
		}
		log.Info("schema migrated", zap.String("dialect", conn.Dialector.Name()))
		return nil
	}),
	fx.Invoke(func(lc fx.Lifecycle, seeder *seed.Seeder, holder *config.CatalogHolder) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return seeder.EnsureCatalog(ctx, holder.Get())
			},
		})
		holder.OnChange(func(c config.Catalog) {
			seeder.Apply(c)
		})
	}),
)
