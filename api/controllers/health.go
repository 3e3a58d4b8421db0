package controllers

import (
	"net/http"

	"github.com/MaiyoDenis/imarisha-loans-sub003/api/responses"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db"
	pkgerrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Imarisha-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Imarisha-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
