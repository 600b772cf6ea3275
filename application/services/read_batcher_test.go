package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"addrspace-crawler/application/ports"
	"addrspace-crawler/application/ports/mocks"
	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
	"addrspace-crawler/internal/infrastructure/concurrency"
)

func TestAttributeReadBatcher_CoalescesDuplicateKeys(t *testing.T) {
	nodeID := valueobjects.NewNodeID(1, 1)
	session := mocks.NewMockSession()
	session.AddNode(nodeID, mocks.MockNode{
		Attributes: map[entities.AttributeID]ports.DataValue{
			entities.AttributeBrowseName: {StatusCode: entities.Good, Value: "Root"},
		},
	})

	batcher := NewAttributeReadBatcher(session, 500, zap.NewNop())
	queue := concurrency.NewWorkQueue()

	var results []entities.AttributeValue
	batcher.DeferRead(nodeID, entities.AttributeBrowseName, func(v entities.AttributeValue) { results = append(results, v) })
	batcher.DeferRead(nodeID, entities.AttributeBrowseName, func(v entities.AttributeValue) { results = append(results, v) })

	require.NoError(t, batcher.Flush(context.Background(), queue))
	task, ok := queue.Pop()
	require.True(t, ok)
	require.NoError(t, task())

	assert.Equal(t, 1, session.ReadCallCount(), "two defers for the same key must collapse into one request")
	assert.Len(t, results, 2, "both callbacks still fire")
	assert.Equal(t, "Root", results[0].Value)
	assert.Equal(t, "Root", results[1].Value)
}

func TestAttributeReadBatcher_Prefill_SkipsServerRoundTrip(t *testing.T) {
	nodeID := valueobjects.NewNodeID(1, 1)
	session := mocks.NewMockSession()
	batcher := NewAttributeReadBatcher(session, 500, zap.NewNop())

	batcher.Prefill(nodeID, entities.AttributeBrowseName, "Root")

	var got entities.AttributeValue
	batcher.DeferRead(nodeID, entities.AttributeBrowseName, func(v entities.AttributeValue) { got = v })

	assert.Equal(t, "Root", got.Value)
	assert.True(t, batcher.IsEmpty())
	assert.Equal(t, 0, session.ReadCallCount())
}

func TestAttributeReadBatcher_BadStatus_YieldsErrorDescriptor(t *testing.T) {
	nodeID := valueobjects.NewNodeID(1, 1)
	session := mocks.NewMockSession()
	session.AddNode(nodeID, mocks.MockNode{
		Attributes: map[entities.AttributeID]ports.DataValue{
			entities.AttributeMinimumSamplingInterval: {StatusCode: "BadAttributeIdInvalid"},
		},
	})

	batcher := NewAttributeReadBatcher(session, 500, zap.NewNop())
	queue := concurrency.NewWorkQueue()

	var got entities.AttributeValue
	batcher.DeferRead(nodeID, entities.AttributeMinimumSamplingInterval, func(v entities.AttributeValue) { got = v })
	require.NoError(t, batcher.Flush(context.Background(), queue))
	task, ok := queue.Pop()
	require.True(t, ok)
	require.NoError(t, task())

	assert.True(t, got.IsError())
	assert.Equal(t, "BadAttributeIdInvalid", got.ErrorName)
}

func TestAttributeReadBatcher_Flush_RespectsLimit(t *testing.T) {
	session := mocks.NewMockSession()
	session.SetOperationalLimits(2, 2)
	batcher := NewAttributeReadBatcher(session, 2, zap.NewNop())
	queue := concurrency.NewWorkQueue()

	for i := 0; i < 5; i++ {
		id := valueobjects.NewNodeID(1, uint16(i))
		batcher.DeferRead(id, entities.AttributeBrowseName, func(entities.AttributeValue) {})
	}

	require.NoError(t, batcher.Flush(context.Background(), queue))
	assert.Equal(t, 1, session.ReadCallCount())
	assert.Equal(t, 2, batcher.ReadCounter())
	assert.False(t, batcher.IsEmpty(), "3 of 5 reads should remain queued after a batch of 2")
}
