package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/prejin2310/megora-inventory/pkg/config"
	"github.com/prejin2310/megora-inventory/pkg/db"
	"github.com/prejin2310/megora-inventory/pkg/logger"
)

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir, "driver": cfg.DB.Driver}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running migrations (dev auto-run)")

	if err := Up(ctx, client, cfg.DB.Driver, DefaultDir); err != nil {
		return err
	}

	logg.Info(ctx, "migrations completed")
	return nil
}

// Up brings the schema to the latest version. Postgres runs the goose SQL
// migrations; SQLite is migrated from the GORM models.
func Up(ctx context.Context, client *db.Client, driver, dir string) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	if strings.EqualFold(driver, config.DriverSQLite) {
		if err := client.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := Run(ctx, sqlDB, dir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	return nil
}
