package controllers

import (
	"net/http"

	"github.com/fotoclick/backend/api/middleware"
	"github.com/fotoclick/backend/api/responses"
	"github.com/fotoclick/backend/api/validators"
	albumssvc "github.com/fotoclick/backend/internal/albums"
	"github.com/fotoclick/backend/pkg/logger"
)

func AlbumCreate(svc albumssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload albumssvc.CreateAlbumInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		album, err := svc.Create(r.Context(), middleware.IdentityFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, album)
	}
}

func AlbumGet(svc albumssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "albumId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		album, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, album)
	}
}

func AlbumsList(svc albumssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albums, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, albums)
	}
}

func AlbumUpdate(svc albumssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "albumId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload albumssvc.UpdateAlbumInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		album, err := svc.Update(r.Context(), middleware.IdentityFromContext(r.Context()), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, album)
	}
}

func AlbumDelete(svc albumssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "albumId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"deleted": id})
	}
}

// AlbumSetPhotos replaces the album's full photo membership.
func AlbumSetPhotos(svc albumssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "albumId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload albumssvc.SetPhotosInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		album, err := svc.SetPhotos(r.Context(), middleware.IdentityFromContext(r.Context()), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, album)
	}
}
