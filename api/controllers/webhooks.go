package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/fotoclick/backend/api/responses"
	checkoutsvc "github.com/fotoclick/backend/internal/checkout"
	"github.com/fotoclick/backend/pkg/logger"
)

type mercadoPagoNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook receives payment notifications. The body is only a
// pointer; the service re-fetches the payment from the provider before
// acting. Duplicate deliveries are short-circuited by the guard, and the
// claim is released when processing fails so the provider's retry lands.
func MercadoPagoWebhook(svc checkoutsvc.Service, guard *checkoutsvc.IdempotencyGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic, paymentID := parseMercadoPagoNotification(r)
		if topic != "" && topic != "payment" {
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}
		if paymentID == "" {
			if logg != nil {
				logg.Warn(r.Context(), "payment notification without payment id")
			}
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}

		first, err := guard.CheckAndMark(r.Context(), paymentID)
		if err != nil && logg != nil {
			logg.Warn(logg.WithField(r.Context(), "payment_id", paymentID), "idempotency store unavailable, processing anyway")
		}
		if !first {
			responses.WriteSuccess(w, map[string]string{"status": "duplicate"})
			return
		}

		if err := svc.HandlePaymentNotification(r.Context(), paymentID); err != nil {
			if releaseErr := guard.Release(r.Context(), paymentID); releaseErr != nil && logg != nil {
				logg.Warn(logg.WithField(r.Context(), "payment_id", paymentID), "failed to release idempotency claim")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}

func parseMercadoPagoNotification(r *http.Request) (topic, paymentID string) {
	query := r.URL.Query()
	topic = strings.TrimSpace(query.Get("type"))
	if topic == "" {
		topic = strings.TrimSpace(query.Get("topic"))
	}
	paymentID = strings.TrimSpace(query.Get("data.id"))
	if paymentID == "" {
		paymentID = strings.TrimSpace(query.Get("id"))
	}

	if paymentID == "" && r.Body != nil {
		var payload mercadoPagoNotification
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&payload); err == nil {
			if topic == "" {
				topic = strings.TrimSpace(payload.Type)
			}
			paymentID = strings.TrimSpace(payload.Data.ID)
		}
	}
	return topic, paymentID
}
