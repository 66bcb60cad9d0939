package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gerai/storefront/internal/admin"
	"github.com/gerai/storefront/internal/cart"
	"github.com/gerai/storefront/internal/identity"
	"github.com/gerai/storefront/internal/order"
	"github.com/gerai/storefront/internal/payment"
	"github.com/gerai/storefront/internal/pricing"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("handler: failed to write JSON response")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithDomainError maps the error taxonomy onto HTTP and includes the
// structured payloads (field list, transition detail) where the error type
// carries one.
func respondWithDomainError(w http.ResponseWriter, err error) {
	var vErr *pricing.ValidationError
	if errors.As(err, &vErr) {
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": vErr.Fields,
		})
		return
	}

	var sErr *order.StockError
	if errors.As(err, &sErr) {
		respondWithJSON(w, http.StatusConflict, map[string]interface{}{
			"error":      sErr.Error(),
			"product_id": sErr.ProductID,
			"size":       sErr.Size,
			"requested":  sErr.Requested,
			"available":  sErr.Available,
		})
		return
	}

	var tErr *order.TransitionError
	if errors.As(err, &tErr) {
		respondWithJSON(w, http.StatusConflict, map[string]interface{}{
			"error":          tErr.Error(),
			"current_status": tErr.From,
			"event":          tErr.Event,
		})
		return
	}

	respondWithError(w, mapErrorToStatusCode(err), err.Error())
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, admin.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, cart.ErrZeroQuantity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrGatewayUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, payment.ErrNotOnlineOrder):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
