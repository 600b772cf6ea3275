package events

import "sync"

// Handler receives an emitted event.
type Handler func(event DomainEvent)

// Publisher is a minimal subscribe/emit bus. The crawler only ever has two
// event types ("browsed", "end" — spec §6), so this stays deliberately small
// rather than growing into a generic dispatcher.
type Publisher struct {
	mu       sync.Mutex
	handlers map[string][]Handler
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{handlers: make(map[string][]Handler)}
}

// On registers a handler for the given event type.
func (p *Publisher) On(eventType string, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = append(p.handlers[eventType], handler)
}

// Emit runs every handler registered for event.GetEventType(), synchronously
// and in registration order. Crawl tasks run single-threaded (spec §5), so
// there is never a handler running concurrently with task code.
func (p *Publisher) Emit(event DomainEvent) {
	p.mu.Lock()
	handlers := append([]Handler(nil), p.handlers[event.GetEventType()]...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(event)
	}
}
