package checkout

import (
	"context"
	"sync"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/repository"
	"github.com/google/uuid"
)

// mockOrderStore records created orders. When block is set, CreateOrder waits
// on it before answering.
type mockOrderStore struct {
	m       sync.RWMutex
	created []domain.OrderFields
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (s *mockOrderStore) CreateOrder(ctx context.Context, fields domain.OrderFields) (*domain.Order, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, fields)
	return &domain.Order{ID: uuid.New(), OrderFields: fields}, nil
}

func (s *mockOrderStore) ListOrders(context.Context, string) ([]*domain.Order, error) {
	return nil, nil
}

func (s *mockOrderStore) orders() []domain.OrderFields {
	s.m.RLock()
	defer s.m.RUnlock()
	return append([]domain.OrderFields(nil), s.created...)
}

var _ repository.OrderRepository = (*mockOrderStore)(nil)

// gatedValidator answers only once release is closed or receives a value.
type gatedValidator struct {
	inner   PromoValidator
	release chan struct{}
	entered chan string
}

func newGatedValidator() *gatedValidator {
	return &gatedValidator{
		inner:   NewStaticValidator(0),
		release: make(chan struct{}),
		entered: make(chan string, 4),
	}
}

func (g *gatedValidator) Validate(ctx context.Context, code string) (domain.PromoCode, error) {
	g.entered <- code
	select {
	case <-g.release:
	case <-ctx.Done():
		return domain.PromoCode{}, ctx.Err()
	}
	return g.inner.Validate(ctx, code)
}
