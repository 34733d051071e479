package http

import (
	"net/http"
)

type SelectDeliveryRequestDTO struct {
	ID string `json:"id"`
}

type ApplyPromoRequestDTO struct {
	Code string `json:"code"`
}

type SubmitRequestDTO struct {
	Name string `json:"name"`
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.Checkout())
}

func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	view, err := s.StartCheckout(ctx)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) BackToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	view, err := s.BackToCart()
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) SelectDelivery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req SelectDeliveryRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	view, err := s.SelectDelivery(req.ID)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ApplyPromo holds the request for the whole validation window.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req ApplyPromoRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	view, err := s.ApplyPromo(ctx, req.Code)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) CancelPromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.CancelPromo())
}

// Submit accepts an optional order name; an empty body is fine.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req SubmitRequestDTO
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	order, err := s.Submit(ctx, req.Name)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}
