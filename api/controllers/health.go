package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/prejin2310/megora-inventory/api/responses"
	"github.com/prejin2310/megora-inventory/pkg/config"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Dependency is a named backing service checked by the readiness probe.
type Dependency struct {
	Name   string
	Pinger interface {
		Ping(context.Context) error
	}
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Megora-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and reports 503 when any of them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Megora-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		for _, dep := range deps {
			if dep.Pinger == nil {
				continue
			}
			if err := dep.Pinger.Ping(ctx); err != nil {
				checks[dep.Name] = "down"
				errCtx := r.Context()
				if logg != nil {
					errCtx = logg.WithField(errCtx, "dependency", dep.Name)
				}
				responses.WriteError(errCtx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, dep.Name+" unavailable").WithDetails(checks))
				return
			}
			checks[dep.Name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
