package migrate

import (
	"context"
	"fmt"

	"github.com/mahaseel/agriconsult-backend/pkg/config"
	"github.com/mahaseel/agriconsult-backend/pkg/db"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at boot when the auto-migrate
// flag is set. Refused outside development so production schema changes
// stay an explicit operator action.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.AutoMigrate {
		return nil
	}
	if !cfg.App.IsDev() {
		return fmt.Errorf("auto-migrate is only allowed in development (env=%s)", cfg.App.Env)
	}

	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("get sql handle: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "running dev auto-migrations")
	}
	return Up(ctx, sqlDB, DefaultDir)
}
