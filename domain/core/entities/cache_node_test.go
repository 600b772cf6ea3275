package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addrspace-crawler/domain/core/valueobjects"
)

func TestNewCacheNode_BrowseNameStartsPending(t *testing.T) {
	node := NewCacheNode(valueobjects.NewNodeID(0, 1))
	assert.True(t, node.BrowseName().IsPending())
}

func TestCacheNode_SetBrowseName_ResolvesOnce(t *testing.T) {
	node := NewCacheNode(valueobjects.NewNodeID(0, 1))
	name := valueobjects.QualifiedName{Name: "Root"}

	node.SetBrowseName(name)
	assert.Equal(t, name, node.BrowseName())

	// Re-resolving with the same value is a no-op, not a panic.
	require.NotPanics(t, func() { node.SetBrowseName(name) })
}

func TestCacheNode_SetBrowseName_ConflictingResolutionPanics(t *testing.T) {
	node := NewCacheNode(valueobjects.NewNodeID(0, 1))
	node.SetBrowseName(valueobjects.QualifiedName{Name: "Root"})

	assert.Panics(t, func() {
		node.SetBrowseName(valueobjects.QualifiedName{Name: "SomethingElse"})
	})
}

func TestCacheNode_SetNodeClass_FirstWriterWins(t *testing.T) {
	node := NewCacheNode(valueobjects.NewNodeID(0, 1))

	node.SetNodeClass(NodeClassObject)
	node.SetNodeClass(NodeClassVariable) // a later direct read must not overwrite the hint

	assert.Equal(t, NodeClassObject, node.NodeClass())
}

func TestCacheNode_SetReferences_SecondAssignmentPanics(t *testing.T) {
	node := NewCacheNode(valueobjects.NewNodeID(0, 1))
	node.SetReferences([]ReferenceDescription{})

	assert.Panics(t, func() {
		node.SetReferences([]ReferenceDescription{})
	})
}

func TestDedupReferences_CollapsesIdenticalPairsKeepingFirst(t *testing.T) {
	refType := valueobjects.NewNodeID(0, 35)
	a := valueobjects.NewNodeID(1, 1)
	b := valueobjects.NewNodeID(1, 2)

	refs := []ReferenceDescription{
		{ReferenceTypeID: refType, NodeID: a, BrowseName: valueobjects.QualifiedName{Name: "first"}},
		{ReferenceTypeID: refType, NodeID: a, BrowseName: valueobjects.QualifiedName{Name: "duplicate"}},
		{ReferenceTypeID: refType, NodeID: b},
	}

	deduped, duplicates := DedupReferences(refs)

	require.Len(t, deduped, 2)
	assert.Equal(t, "first", deduped[0].BrowseName.Name)
	assert.Equal(t, 1, duplicates)
}
