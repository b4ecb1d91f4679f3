package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	featureflagdomain "github.com/fanflet/fanflet/internal/featureflag/domain"
	plandomain "github.com/fanflet/fanflet/internal/plan/domain"
	speakerdomain "github.com/fanflet/fanflet/internal/speaker/domain"
	subscriptiondomain "github.com/fanflet/fanflet/internal/subscription/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations to db.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema from the gorm models for dialects the SQL
// migrations do not target (sqlite for local runs and tests, mysql).
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(
		&speakerdomain.Speaker{},
		&featureflagdomain.FeatureFlag{},
		&featureflagdomain.FeatureOverride{},
		&plandomain.Plan{},
		&plandomain.PlanFeature{},
		&subscriptiondomain.Subscription{},
	)
}

// Migrate picks the migration strategy for the connected dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if conn.Dialector.Name() != "postgres" {
		return AutoMigrate(conn)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
