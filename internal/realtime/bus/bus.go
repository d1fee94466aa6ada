package bus

import (
	"context"
	"sync"

	"github.com/yungbote/knowledge-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	Close() error
}

type noopBus struct{}

// NewNoopBus returns a bus that drops every message. Used when no Redis is configured.
func NewNoopBus() Bus { return noopBus{} }

func (noopBus) Publish(ctx context.Context, msg realtime.SSEMessage) error { return nil }
func (noopBus) Close() error                                               { return nil }

// MemoryBus keeps published messages in memory. The CLI and tests use it.
type MemoryBus struct {
	mu       sync.Mutex
	messages []realtime.SSEMessage
	err      error
}

func NewMemoryBus() *MemoryBus { return &MemoryBus{} }

// FailWith makes subsequent publishes return err.
func (b *MemoryBus) FailWith(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

func (b *MemoryBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.messages = append(b.messages, msg)
	return nil
}

func (b *MemoryBus) Messages() []realtime.SSEMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]realtime.SSEMessage, len(b.messages))
	copy(out, b.messages)
	return out
}

func (b *MemoryBus) Close() error { return nil }
