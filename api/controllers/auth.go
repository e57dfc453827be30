package controllers

import (
	"net/http"
	"strings"

	"github.com/fotoclick/backend/api/responses"
	"github.com/fotoclick/backend/api/validators"
	cartsvc "github.com/fotoclick/backend/internal/cart"
	userssvc "github.com/fotoclick/backend/internal/users"
	"github.com/fotoclick/backend/pkg/logger"
)

const guestTokenHeader = "X-Guest-Token"

func AuthRegister(svc userssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload userssvc.RegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AuthLogin authenticates and, when the request carries a guest token, folds
// that guest's cart into the user's cart so the session survives the login.
func AuthLogin(svc userssvc.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload userssvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if guestToken := strings.TrimSpace(r.Header.Get(guestTokenHeader)); guestToken != "" && carts != nil {
			if _, err := carts.MergeGuestIntoUser(r.Context(), result.User.ID, guestToken); err != nil {
				// merge failure must not fail the login
				if logg != nil {
					logg.Warn(logg.WithGuestToken(r.Context(), guestToken), "guest cart merge on login failed")
				}
			}
		}

		responses.WriteSuccess(w, result)
	}
}
