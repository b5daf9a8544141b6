package controllers

import (
	"net/http"

	"go.uber.org/multierr"

	"github.com/kuraeplasma/SPACEGLEAM/api/responses"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/config"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/db"
	pkgerrors "github.com/kuraeplasma/SPACEGLEAM/pkg/errors"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/logger"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Spacegleam-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores and reports aggregate readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Spacegleam-Env", cfg.App.Env)

		var errs error
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
			}
		}
		if errs != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "not ready"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
