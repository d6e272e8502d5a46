package identity

import (
	"context"
	"sync"
)

type sessionCtxKey struct{}

// WithSession binds the authenticated session to the context. The HTTP layer
// does this once per request after verifying the token.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// Broker is the in-process Provider. The request boundary binds sessions into
// contexts and publishes lifecycle events; subscribers (the chat session
// registry) react to sign-outs.
type Broker struct {
	mu       sync.Mutex
	handlers map[uint64]Handler
	nextId   uint64
}

func NewBroker() *Broker {
	return &Broker{handlers: make(map[uint64]Handler)}
}

var _ Provider = (*Broker)(nil)

// Current returns the session bound to the context, or nil for anonymous
// callers.
func (b *Broker) Current(ctx context.Context) (*Session, error) {
	s, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return s, nil
}

func (b *Broker) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextId
	b.nextId++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every subscriber on the calling goroutine.
func (b *Broker) Publish(ctx context.Context, event ChangeEvent) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, event)
	}
}
