package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	// Health reports whether the backing stores are reachable. Nil means
	// always healthy.
	Health func(ctx context.Context) error
	// RateLimiter throttles /api/v1 per visitor. Nil disables it.
	RateLimiter *RateLimiter
}

// NewRouter mounts the storefront API under /api/v1 and wraps it in
// OpenTelemetry instrumentation.
func NewRouter(h *Handler, cfg RouterConfig, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware(log))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(MaxBodySize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/delivery-options", h.DeliveryOptions)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddItem)
				r.Patch("/items/{product_id}", h.UpdateQuantity)
				r.Delete("/items/{product_id}", h.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.GetCheckout)
				r.Post("/", h.StartCheckout)
				r.Post("/back", h.BackToCart)
				r.Put("/delivery", h.SelectDelivery)
				r.Post("/promo", h.ApplyPromo)
				r.Delete("/promo", h.CancelPromo)
				r.Post("/submit", h.Submit)
			})

			r.Get("/orders", h.ListOrders)
			r.Get("/notifications", h.Notifications)
			r.Delete("/session", h.ResetSession)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
