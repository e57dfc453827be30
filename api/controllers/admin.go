package controllers

import (
	"net/http"

	"github.com/fotoclick/backend/api/middleware"
	"github.com/fotoclick/backend/api/responses"
	adminsvc "github.com/fotoclick/backend/internal/admin"
	"github.com/fotoclick/backend/pkg/logger"
)

func AdminDashboard(svc adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dashboard, err := svc.Dashboard(r.Context(), middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
