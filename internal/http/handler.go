package http

import (
	"context"
	"net/http"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/repository"
	"github.com/apper-canvas/market-mosaic-media/internal/session"
	"go.uber.org/zap"
)

// Catalog is the product read side the handlers use.
type Catalog interface {
	ListProducts(ctx context.Context, category string) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// Sessions resolves and tears down visitor sessions.
type Sessions interface {
	Get(ctx context.Context, id, owner string) (*session.Session, error)
	Reset(ctx context.Context, id string) error
}

type Handler struct {
	catalog  Catalog
	sessions Sessions
	orders   repository.OrderRepository
	timeout  time.Duration
	log      *zap.Logger
}

func NewHandler(catalog Catalog, sessions Sessions, orders repository.OrderRepository, timeout time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		catalog:  catalog,
		sessions: sessions,
		orders:   orders,
		timeout:  timeout,
		log:      log,
	}
}

func (h *Handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// session returns the request's session, writing the error response itself
// when it cannot.
func (h *Handler) session(ctx context.Context, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_session", "missing session")
		return nil, false
	}
	s, err := h.sessions.Get(ctx, id.sessionID, id.owner)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return nil, false
	}
	return s, true
}
