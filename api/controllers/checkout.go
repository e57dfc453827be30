package controllers

import (
	"net/http"

	"github.com/fotoclick/backend/api/middleware"
	"github.com/fotoclick/backend/api/responses"
	"github.com/fotoclick/backend/api/validators"
	checkoutsvc "github.com/fotoclick/backend/internal/checkout"
	"github.com/fotoclick/backend/pkg/logger"
)

// CheckoutStart snapshots the cart into an order and returns the provider
// redirect for payment.
func CheckoutStart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutsvc.StartCheckoutInput
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		session, err := svc.StartCheckout(r.Context(), middleware.IdentityFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}
