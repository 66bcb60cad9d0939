package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gerai/storefront/internal/payment"
)

type PaymentHandler struct {
	orch *payment.Orchestrator
}

func NewPaymentHandler(orch *payment.Orchestrator) *PaymentHandler {
	return &PaymentHandler{orch: orch}
}

type outcomeRequest struct {
	Outcome payment.Outcome `json:"outcome"`
}

// Outcome is the client-side widget callback: one terminal outcome per
// payment attempt.
func (h *PaymentHandler) Outcome(w http.ResponseWriter, r *http.Request) {
	if _, ok := ActorFromContext(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Outcome.Valid() {
		respondWithError(w, http.StatusBadRequest, "unknown outcome")
		return
	}

	result, err := h.orch.HandleOutcome(r.Context(), orderID, req.Outcome)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type notificationRequest struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
}

// Notification is the gateway's server-to-server webhook. It reconciles the
// order even when the customer closed the widget before the payment settled.
func (h *PaymentHandler) Notification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID, err := uuid.FromString(req.OrderID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	outcome := payment.MapNotification(req.TransactionStatus)
	log.Info().Str("order_id", req.OrderID).Str("transaction_status", req.TransactionStatus).Str("outcome", string(outcome)).Msg("handler: gateway notification received")

	result, err := h.orch.HandleOutcome(r.Context(), orderID, outcome)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
