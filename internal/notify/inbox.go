package notify

import (
	"context"
	"sync"
)

const defaultInboxCapacity = 50

// Inbox keeps the latest notifications of one session until drained. When
// full the oldest entry is dropped.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = defaultInboxCapacity
	}
	return &Inbox{limit: capacity}
}

func (b *Inbox) Notify(_ context.Context, n Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == b.limit {
		b.items = b.items[1:]
	}
	b.items = append(b.items, n)
	return nil
}

// Drain returns pending notifications oldest first and empties the inbox.
func (b *Inbox) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.items
	b.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
