package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/gerai/storefront/internal/admin"
	"github.com/gerai/storefront/internal/identity"
	"github.com/gerai/storefront/internal/order"
)

type AdminHandler struct {
	ctrl *admin.Controller
}

func NewAdminHandler(ctrl *admin.Controller) *AdminHandler {
	return &AdminHandler{ctrl: ctrl}
}

func (h *AdminHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ctrl.ConfirmPayment)
}

func (h *AdminHandler) Ship(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ctrl.Ship)
}

func (h *AdminHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ctrl.Deliver)
}

func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ctrl.Cancel)
}

func (h *AdminHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, *identity.Actor, uuid.UUID) (*order.Order, error)) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := op(r.Context(), actor, orderID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}
