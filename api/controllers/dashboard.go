package controllers

import (
	"net/http"

	"github.com/MaiyoDenis/imarisha-loans-sub003/api/responses"
	dashboardsvc "github.com/MaiyoDenis/imarisha-loans-sub003/internal/dashboard"
	pkgerrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
)

// DashboardStats returns the cached institution-wide portfolio snapshot.
func DashboardStats(svc dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if stats.FromCache {
			w.Header().Set("X-Cache", "HIT")
		}
		responses.WriteSuccess(w, stats)
	}
}
