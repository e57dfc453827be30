package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fotoclick/backend/api/responses"
	"github.com/fotoclick/backend/internal/permissions"
	pkgAuth "github.com/fotoclick/backend/pkg/auth"
	"github.com/fotoclick/backend/pkg/config"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
)

const guestTokenHeader = "X-Guest-Token"

// PermissionSource resolves the live permission set for a user. Reading it
// per request means role changes apply without re-login.
type PermissionSource interface {
	PermissionSetFor(ctx context.Context, userID int64) (permissions.Set, error)
}

// Identity resolves the caller and seeds the request context. A bearer token
// wins over a guest token header; an invalid bearer token fails the request
// rather than silently downgrading to guest. Requests with neither proceed
// anonymous.
func Identity(cfg config.JWTConfig, perms PermissionSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw != "" {
				identity, err := resolveUser(r.Context(), cfg, perms, raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}

				ctx := WithIdentity(r.Context(), identity)
				if logg != nil && identity.UserID != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"user_id": *identity.UserID,
					})
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if token := strings.TrimSpace(r.Header.Get(guestTokenHeader)); token != "" {
				ctx := WithIdentity(r.Context(), permissions.GuestIdentity(token))
				if logg != nil {
					ctx = logg.WithGuestToken(ctx, token)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity rejects requests that resolved to neither a user nor a
// guest. Cart and order routes sit behind it.
func RequireIdentity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFromContext(r.Context()).Resolved() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects everything but authenticated users. Back-office routes
// sit behind it; the fine-grained permission checks live in the services.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFromContext(r.Context()).IsUser() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveUser(ctx context.Context, cfg config.JWTConfig, perms PermissionSource, raw string) (permissions.Identity, error) {
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return permissions.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return permissions.Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.UserID <= 0 {
		return permissions.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token subject")
	}

	set, err := perms.PermissionSetFor(ctx, claims.UserID)
	if err != nil {
		return permissions.Identity{}, err
	}

	identity := permissions.UserIdentity(claims.UserID, set)
	if claims.Email != "" {
		email := claims.Email
		identity.Email = &email
	}
	return identity, nil
}
