// Package session holds decorators over application/ports.Session that add
// cross-cutting transport concerns without touching the crawl algorithm.
package session

import (
	"context"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"addrspace-crawler/application/ports"
)

// CircuitBreakingSession wraps a Session so that repeated transport failures
// trip a breaker instead of continuing to hammer a downed server (spec §7:
// "a transport-level error from the session terminates the current batch").
// A long-lived host process that drives many crawl() calls against the same
// endpoint benefits from failing fast once the server is clearly down.
type CircuitBreakingSession struct {
	inner        ports.Session
	browseBreaker *gobreaker.CircuitBreaker[[]ports.BrowseResult]
	readBreaker   *gobreaker.CircuitBreaker[[]ports.DataValue]
}

// NewCircuitBreakingSession wraps inner with independent breakers for browse
// and read, since the two operations fail independently.
func NewCircuitBreakingSession(inner ports.Session, logger *zap.Logger) *CircuitBreakingSession {
	onStateChange := func(name string, from, to gobreaker.State) {
		logger.Warn("session circuit breaker state change",
			zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
	}

	return &CircuitBreakingSession{
		inner: inner,
		browseBreaker: gobreaker.NewCircuitBreaker[[]ports.BrowseResult](gobreaker.Settings{
			Name:          "session.browse",
			OnStateChange: onStateChange,
		}),
		readBreaker: gobreaker.NewCircuitBreaker[[]ports.DataValue](gobreaker.Settings{
			Name:          "session.read",
			OnStateChange: onStateChange,
		}),
	}
}

// Browse implements ports.Session.
func (s *CircuitBreakingSession) Browse(ctx context.Context, descriptions []ports.BrowseDescription) ([]ports.BrowseResult, error) {
	return s.browseBreaker.Execute(func() ([]ports.BrowseResult, error) {
		return s.inner.Browse(ctx, descriptions)
	})
}

// Read implements ports.Session.
func (s *CircuitBreakingSession) Read(ctx context.Context, requests []ports.ReadValueID) ([]ports.DataValue, error) {
	return s.readBreaker.Execute(func() ([]ports.DataValue, error) {
		return s.inner.Read(ctx, requests)
	})
}

// OperationalLimits implements ports.Session, passed straight through — it
// is called once per crawl, not worth guarding with a breaker.
func (s *CircuitBreakingSession) OperationalLimits(ctx context.Context) (int, int, error) {
	return s.inner.OperationalLimits(ctx)
}
