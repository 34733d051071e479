package http

import (
	"net/http"

	"github.com/apper-canvas/market-mosaic-media/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.Cart())
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	view, err := s.AddItem(ctx, *product)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	productID, err := catalog.ParseProductID(chi.URLParam(r, "product_id"))
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	view, err := s.UpdateQuantity(ctx, productID, req.Delta)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	productID, err := catalog.ParseProductID(chi.URLParam(r, "product_id"))
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	view, err := s.RemoveItem(ctx, productID)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	view, err := s.Clear(ctx)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
