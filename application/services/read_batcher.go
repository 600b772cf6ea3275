package services

import (
	"context"

	"go.uber.org/zap"

	"addrspace-crawler/application/ports"
	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
	"addrspace-crawler/internal/infrastructure/concurrency"
	pkgerrors "addrspace-crawler/pkg/errors"
)

type readKey struct {
	nodeID      valueobjects.NodeID
	attributeID entities.AttributeID
}

type pendingRead struct {
	key       readKey
	callbacks []func(entities.AttributeValue)
}

// AttributeReadBatcher accumulates pending (node, attribute) reads,
// coalesces by key, and flushes in batches no larger than MaxNodesPerRead
// (spec §4.2).
type AttributeReadBatcher struct {
	session ports.Session
	limit   int
	logger  *zap.Logger

	results map[readKey]entities.AttributeValue
	inFlightOrPending map[readKey]*pendingRead
	queue   []readKey

	readCounter int
}

// NewAttributeReadBatcher creates a batcher bounded by limit (spec §6:
// defaults to 500 when the server doesn't advertise one — callers pass the
// already-resolved OperationalLimits value).
func NewAttributeReadBatcher(session ports.Session, limit int, logger *zap.Logger) *AttributeReadBatcher {
	return &AttributeReadBatcher{
		session:           session,
		limit:             limit,
		logger:            logger,
		results:           make(map[readKey]entities.AttributeValue),
		inFlightOrPending: make(map[readKey]*pendingRead),
	}
}

// ReadCounter reports how many read requests have actually been issued to
// the session across this batcher's lifetime (spec §6, invariant 3).
func (b *AttributeReadBatcher) ReadCounter() int {
	return b.readCounter
}

// IsEmpty reports whether no read is waiting to be flushed. Reads already
// sent whose results have not yet been delivered do not count.
func (b *AttributeReadBatcher) IsEmpty() bool {
	return len(b.queue) == 0
}

// Prefill seeds the memoization cache for (nodeID, attributeID) with a value
// the server already handed over for free — the per-reference hints a browse
// response carries (spec §4.6: "These are 'free' — the server delivered them
// in the browse reply and need not be re-read"). A no-op if the key is
// already resolved or in flight, so a direct read always wins ties.
func (b *AttributeReadBatcher) Prefill(nodeID valueobjects.NodeID, attributeID entities.AttributeID, value interface{}) {
	key := readKey{nodeID: nodeID, attributeID: attributeID}
	if _, ok := b.results[key]; ok {
		return
	}
	if _, ok := b.inFlightOrPending[key]; ok {
		return
	}
	b.results[key] = entities.AttributeValue{Value: value}
}

// DeferRead requests the value of (nodeID, attributeID), invoking onResult
// exactly once with the eventual value. A second DeferRead for a key already
// queued or already resolved reuses the first request's outcome — this is
// the attribute-memoization contract (spec §4.2, invariant 3).
func (b *AttributeReadBatcher) DeferRead(nodeID valueobjects.NodeID, attributeID entities.AttributeID, onResult func(entities.AttributeValue)) {
	key := readKey{nodeID: nodeID, attributeID: attributeID}

	if value, ok := b.results[key]; ok {
		onResult(value)
		return
	}

	if pending, ok := b.inFlightOrPending[key]; ok {
		pending.callbacks = append(pending.callbacks, onResult)
		return
	}

	pending := &pendingRead{key: key, callbacks: []func(entities.AttributeValue){onResult}}
	b.inFlightOrPending[key] = pending
	b.queue = append(b.queue, key)
}

// Flush issues one Session.Read for up to limit pending reads (FIFO) and
// unshifts a follow-up task onto scheduler that delivers each result to its
// callbacks — so the delivery runs ahead of any already-queued crawl task,
// matching the ordering guarantee in spec §5. A no-op when there is nothing
// pending (spec §4.5: "guarded to be no-ops when empty").
func (b *AttributeReadBatcher) Flush(ctx context.Context, scheduler *concurrency.WorkQueue) error {
	if len(b.queue) == 0 {
		return nil
	}

	batchSize := len(b.queue)
	if batchSize > b.limit {
		batchSize = b.limit
	}
	keys := b.queue[:batchSize]
	b.queue = b.queue[batchSize:]

	requests := make([]ports.ReadValueID, len(keys))
	for i, key := range keys {
		requests[i] = ports.ReadValueID{NodeID: key.nodeID, AttributeID: key.attributeID}
	}

	b.readCounter += len(requests)
	results, err := b.session.Read(ctx, requests)
	if err != nil {
		b.logger.Error("attribute read batch failed", zap.Int("count", len(requests)), zap.Error(err))
		return pkgerrors.NewTransportError("attribute read batch failed", err)
	}
	if len(results) != len(requests) {
		return pkgerrors.NewProtocolError("read response count does not match request count")
	}

	scheduler.Unshift(func() error {
		for i, key := range keys {
			value := resolveAttributeValue(results[i])
			b.results[key] = value
			pending := b.inFlightOrPending[key]
			delete(b.inFlightOrPending, key)
			if pending == nil {
				continue
			}
			for _, cb := range pending.callbacks {
				cb(value)
			}
		}
		return nil
	})
	return nil
}

// resolveAttributeValue applies spec §4.2's status-to-value mapping.
func resolveAttributeValue(result ports.DataValue) entities.AttributeValue {
	if result.StatusCode == "" || result.StatusCode == entities.Good {
		return entities.AttributeValue{Value: result.Value}
	}
	return entities.AttributeValue{ErrorName: result.StatusCode.Symbolic()}
}
