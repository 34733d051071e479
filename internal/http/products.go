package http

import (
	"net/http"

	"github.com/apper-canvas/market-mosaic-media/internal/catalog"
	"github.com/apper-canvas/market-mosaic-media/internal/checkout"
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ProductsResponse struct {
	Products []*domain.Product `json:"products"`
}

type DeliveryOptionsResponse struct {
	Options []domain.DeliveryOption `json:"options"`
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx, r.URL.Query().Get("category"))
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, ProductsResponse{Products: products})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	id, err := catalog.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) DeliveryOptions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, DeliveryOptionsResponse{Options: checkout.DeliveryOptions()})
}
