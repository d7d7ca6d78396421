package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/mahaseel/agriconsult-backend/api/responses"
	"github.com/mahaseel/agriconsult-backend/pkg/db"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
	"github.com/mahaseel/agriconsult-backend/pkg/redis"
)

const readinessTimeout = 3 * time.Second

func Live() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "alive"})
	}
}

// Ready reports whether every backing dependency answers a ping. The
// checks run against all dependencies so a single probe shows every
// broken one at once.
func Ready(database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var err error
		if pingErr := database.Ping(ctx); pingErr != nil {
			err = multierr.Append(err, fmt.Errorf("postgres: %w", pingErr))
		}
		if pingErr := cache.Ping(ctx); pingErr != nil {
			err = multierr.Append(err, fmt.Errorf("redis: %w", pingErr))
		}

		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "readiness check failed"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
