package session

import (
	"context"
	"sync"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/cart"
	"github.com/apper-canvas/market-mosaic-media/internal/checkout"
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/logger"
	"github.com/apper-canvas/market-mosaic-media/internal/notify"
	"github.com/apper-canvas/market-mosaic-media/internal/repository"
	"go.uber.org/zap"
)

const (
	// DefaultIdleTTL is how long an untouched session is kept
	DefaultIdleTTL = 30 * time.Minute

	// DefaultSweepInterval is how often idle sessions are looked for
	DefaultSweepInterval = time.Minute
)

// Options configures every session a Manager creates.
type Options struct {
	Persistence Persistence
	// Rollback restores the previous cart when a persistence call fails.
	Rollback               bool
	Validator              checkout.PromoValidator
	Orders                 repository.OrderRepository
	FreeshipWaivesDelivery bool
	// Sink receives every notification in addition to the session inbox.
	Sink          notify.Sink
	Publisher     OrderPublisher
	InboxCapacity int
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

// Manager creates sessions on first use and expires idle ones in the
// background until Stop is called.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	log      *zap.Logger

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewManager(opts Options, log *zap.Logger) *Manager {
	if opts.Persistence == nil {
		opts.Persistence = LocalPersistence{}
	}
	if opts.Sink == nil {
		opts.Sink = notify.Nop{}
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	m := &Manager{
		sessions:    make(map[string]*Session),
		opts:        opts,
		log:         log,
		stopCleanup: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// Get returns the session id, creating it for owner when missing. A new
// session loads its cart through the persistence strategy; if that fails no
// session is kept.
func (m *Manager) Get(ctx context.Context, id, owner string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	if owner == "" {
		owner = id
	}
	items, err := m.opts.Persistence.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s = m.newSession(id, owner, items)
	m.sessions[id] = s
	logger.FromContext(ctx, m.log).Debug("session created",
		zap.String("session", id),
		zap.String("owner", owner),
		zap.Int("items", len(items)))
	return s, nil
}

// Reset tears the session down, clearing its cart in the persistence layer
// too. Unknown ids are a no-op.
func (m *Manager) Reset(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.teardown(ctx)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stop ends the background sweep.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCleanup) })
	m.wg.Wait()
}

func (m *Manager) newSession(id, owner string, items []domain.CartItem) *Session {
	s := &Session{
		ID:        id,
		Owner:     owner,
		cart:      cart.FromItems(items),
		persist:   m.opts.Persistence,
		rollback:  m.opts.Rollback,
		inbox:     notify.NewInbox(m.opts.InboxCapacity),
		publisher: m.opts.Publisher,
		now:       m.opts.Now,
		log:       m.log.With(zap.String("session", id)),
	}
	s.touch()
	s.sink = notify.Multi{s.inbox, m.opts.Sink}
	s.checkout = checkout.New(m.opts.Validator, m.opts.Orders, checkout.Options{
		WaiveDeliveryOnFreeShipping: m.opts.FreeshipWaivesDelivery,
		OnTransition: func(from, to domain.CheckoutStatus) {
			s.log.Debug("checkout status changed",
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
		Now: m.opts.Now,
	}, m.log)
	return s
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.expireIdle()
		case <-m.stopCleanup:
			return
		}
	}
}

// expireIdle forgets sessions untouched for longer than the idle TTL. Their
// remote carts are kept so the owner finds them again.
func (m *Manager) expireIdle() int {
	cutoff := m.opts.Now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			s.checkout.CancelPromo()
			expired++
		}
	}
	if expired > 0 {
		m.log.Info("expired idle sessions", zap.Int("count", expired))
	}
	return expired
}
