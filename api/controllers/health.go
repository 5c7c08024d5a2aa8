package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const (
	envHeader          = "X-PDV-Env"
	readyCheckDeadline = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency in parallel and answers 503 naming the ones that failed.
func HealthReady(cfg *config.Config, checks map[string]db.Pinger, logg *logger.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name, pinger := range checks {
		if pinger != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckDeadline)
		defer cancel()

		results := make([]string, len(names))
		var group errgroup.Group
		for i, name := range names {
			group.Go(func() error {
				if err := checks[name].Ping(ctx); err != nil {
					results[i] = err.Error()
				}
				return nil
			})
		}
		_ = group.Wait()

		failed := map[string]string{}
		for i, name := range names {
			if results[i] != "" {
				failed[name] = results[i]
			}
		}
		if len(failed) > 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": names})
	}
}
