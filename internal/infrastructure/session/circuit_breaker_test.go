package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"addrspace-crawler/application/ports/mocks"
	"addrspace-crawler/domain/core/valueobjects"
)

func TestCircuitBreakingSession_PassesThroughOnSuccess(t *testing.T) {
	inner := mocks.NewMockSession()
	root := valueobjects.NewNodeID(1, 1)
	inner.AddNode(root, mocks.MockNode{})

	wrapped := NewCircuitBreakingSession(inner, zap.NewNop())

	_, _, err := wrapped.OperationalLimits(context.Background())
	require.NoError(t, err)

	results, err := wrapped.Browse(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCircuitBreakingSession_PropagatesTransportError(t *testing.T) {
	inner := mocks.NewMockSession()
	inner.SetError("Read", assert.AnError)

	wrapped := NewCircuitBreakingSession(inner, zap.NewNop())

	_, err := wrapped.Read(context.Background(), nil)
	require.Error(t, err)
}
