package controllers

import (
	"net/http"

	"github.com/fotoclick/backend/api/middleware"
	"github.com/fotoclick/backend/api/responses"
	"github.com/fotoclick/backend/api/validators"
	earningssvc "github.com/fotoclick/backend/internal/earnings"
	"github.com/fotoclick/backend/pkg/logger"
)

func EarningsList(svc earningssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographerID, err := validators.ParseIDParam(r, "photographerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForPhotographer(r.Context(), middleware.IdentityFromContext(r.Context()), photographerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func EarningsSummary(svc earningssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographerID, err := validators.ParseIDParam(r, "photographerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.SummaryForPhotographer(r.Context(), middleware.IdentityFromContext(r.Context()), photographerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

func EarningsSummaryAll(svc earningssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := svc.SummaryAll(r.Context(), middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summaries)
	}
}
