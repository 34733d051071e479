package http

import (
	"net/http"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/notify"
)

type OrdersResponse struct {
	Orders []*domain.Order `json:"orders"`
}

type NotificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_session", "missing session")
		return
	}
	orders, err := h.orders.ListOrders(ctx, id.owner)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, OrdersResponse{Orders: orders})
}

// Notifications drains the session inbox.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, NotificationsResponse{Notifications: s.Notifications()})
}

func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_session", "missing session")
		return
	}
	if err := h.sessions.Reset(ctx, id.sessionID); err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
