package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/fotoclick/backend/api/responses"
	"github.com/fotoclick/backend/pkg/config"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FotoClick-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency. Nil pingers are skipped so dev
// setups without the full stack still report ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FotoClick-Env", cfg.App.Env)

		checks := map[string]string{}
		var errs error
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				checks[name] = "down"
				errs = multierr.Append(errs, err)
				continue
			}
			checks[name] = "ok"
		}

		if errs != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependency unavailable").WithDetails(checks))
			return
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}

// ReadinessDeps builds the named dependency set for HealthReady.
func ReadinessDeps(db, redis, payments pinger) map[string]pinger {
	return map[string]pinger{
		"database": db,
		"redis":    redis,
		"payments": payments,
	}
}
