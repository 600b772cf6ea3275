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

type pendingBrowse struct {
	node            *entities.CacheNode
	referenceTypeID valueobjects.NodeID
	onResult        func([]entities.ReferenceDescription, error)
}

// browseResultMask is the fixed resultMask spec §4.3 requires for every browse.
const browseResultMask = ports.ResultMaskReferenceType | ports.ResultMaskIsForward |
	ports.ResultMaskBrowseName | ports.ResultMaskDisplayName |
	ports.ResultMaskNodeClass | ports.ResultMaskTypeDefinition

// BrowseBatcher accumulates pending browse requests and flushes in batches
// no larger than MaxNodesPerBrowse (spec §4.3). Unlike the read batcher,
// browses are not memoized here — the traversal driver's visited set is what
// guarantees at most one browse per node (invariant 4).
type BrowseBatcher struct {
	session ports.Session
	limit   int
	logger  *zap.Logger

	queue []*pendingBrowse

	browseCounter int
}

// NewBrowseBatcher creates a batcher bounded by limit.
func NewBrowseBatcher(session ports.Session, limit int, logger *zap.Logger) *BrowseBatcher {
	return &BrowseBatcher{session: session, limit: limit, logger: logger}
}

// BrowseCounter reports how many browse requests have actually been issued.
func (b *BrowseBatcher) BrowseCounter() int {
	return b.browseCounter
}

// IsEmpty reports whether there is no pending work.
func (b *BrowseBatcher) IsEmpty() bool {
	return len(b.queue) == 0
}

// DeferBrowse requests a forward browse of node across referenceTypeID,
// invoking onResult once the batch completes with the node's (already
// deduplicated) outgoing references.
func (b *BrowseBatcher) DeferBrowse(node *entities.CacheNode, referenceTypeID valueobjects.NodeID, onResult func([]entities.ReferenceDescription, error)) {
	b.queue = append(b.queue, &pendingBrowse{node: node, referenceTypeID: referenceTypeID, onResult: onResult})
}

// Flush issues one Session.Browse for up to limit pending browses (FIFO) and
// unshifts a follow-up task onto scheduler that delivers each result. A
// no-op when nothing is pending (spec §4.5).
func (b *BrowseBatcher) Flush(ctx context.Context, scheduler *concurrency.WorkQueue) error {
	if len(b.queue) == 0 {
		return nil
	}

	batchSize := len(b.queue)
	if batchSize > b.limit {
		batchSize = b.limit
	}
	batch := b.queue[:batchSize]
	b.queue = b.queue[batchSize:]

	descriptions := make([]ports.BrowseDescription, len(batch))
	for i, item := range batch {
		descriptions[i] = ports.BrowseDescription{
			NodeID:          item.node.NodeID(),
			BrowseDirection: ports.BrowseDirectionForward,
			ReferenceTypeID: item.referenceTypeID,
			IncludeSubtypes: true,
			ResultMask:      browseResultMask,
		}
	}

	b.browseCounter += len(descriptions)
	results, err := b.session.Browse(ctx, descriptions)
	if err != nil {
		b.logger.Error("browse batch failed", zap.Int("count", len(descriptions)), zap.Error(err))
		return pkgerrors.NewTransportError("browse batch failed", err)
	}
	if len(results) != len(descriptions) {
		return pkgerrors.NewProtocolError("browse response count does not match request count")
	}
	for _, result := range results {
		if len(result.ContinuationPoint) != 0 {
			return pkgerrors.NewProtocolError("server returned a continuation point; continuation points are not supported")
		}
	}

	scheduler.Unshift(func() error {
		for i, item := range batch {
			refs, duplicates := entities.DedupReferences(results[i].References)
			if duplicates > 0 {
				b.logger.Warn("dropped duplicate references in browse response",
					zap.String("nodeId", item.node.NodeID().String()),
					zap.Int("duplicates", duplicates))
			}
			item.onResult(refs, nil)
		}
		return nil
	})
	return nil
}
