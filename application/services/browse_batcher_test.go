package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"addrspace-crawler/application/ports/mocks"
	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
	"addrspace-crawler/internal/infrastructure/concurrency"
)

func TestBrowseBatcher_DedupsDuplicateReferences(t *testing.T) {
	nodeID := valueobjects.NewNodeID(1, 1)
	child := valueobjects.NewNodeID(1, 2)
	refType := valueobjects.NewNodeID(0, 35)

	session := mocks.NewMockSession()
	session.AddNode(nodeID, mocks.MockNode{
		References: []entities.ReferenceDescription{
			{ReferenceTypeID: refType, NodeID: child, BrowseName: valueobjects.QualifiedName{Name: "first"}},
			{ReferenceTypeID: refType, NodeID: child, BrowseName: valueobjects.QualifiedName{Name: "duplicate"}},
		},
	})

	store := NewCacheNodeStore()
	node := store.Create(nodeID)

	batcher := NewBrowseBatcher(session, 500, zap.NewNop())
	queue := concurrency.NewWorkQueue()

	var got []entities.ReferenceDescription
	batcher.DeferBrowse(node, refType, func(refs []entities.ReferenceDescription, err error) {
		require.NoError(t, err)
		got = refs
	})

	require.NoError(t, batcher.Flush(context.Background(), queue))
	task, ok := queue.Pop()
	require.True(t, ok)
	require.NoError(t, task())

	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].BrowseName.Name)
}

func TestBrowseBatcher_TransportFailureWraps(t *testing.T) {
	nodeID := valueobjects.NewNodeID(1, 1)
	refType := valueobjects.NewNodeID(0, 35)

	session := mocks.NewMockSession()
	session.SetError("Browse", assert.AnError)

	store := NewCacheNodeStore()
	node := store.Create(nodeID)

	batcher := NewBrowseBatcher(session, 500, zap.NewNop())
	queue := concurrency.NewWorkQueue()
	batcher.DeferBrowse(node, refType, func([]entities.ReferenceDescription, error) {})

	err := batcher.Flush(context.Background(), queue)
	require.Error(t, err)
}
