package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
)

func TestFinalize_Diamond_ExpandsCommonDescendantOnlyOnce(t *testing.T) {
	store := NewCacheNodeStore()
	PrepopulateReferenceTypes(store)

	root := store.Create(valueobjects.NewNodeID(1, 1))
	root.SetBrowseName(valueobjects.QualifiedName{Name: "Root"})
	a := store.Create(valueobjects.NewNodeID(1, 2))
	a.SetBrowseName(valueobjects.QualifiedName{Name: "A"})
	b := store.Create(valueobjects.NewNodeID(1, 3))
	b.SetBrowseName(valueobjects.QualifiedName{Name: "B"})
	c := store.Create(valueobjects.NewNodeID(1, 4))
	c.SetBrowseName(valueobjects.QualifiedName{Name: "C"})
	d := store.Create(valueobjects.NewNodeID(1, 5))
	d.SetBrowseName(valueobjects.QualifiedName{Name: "D"})

	root.SetReferences([]entities.ReferenceDescription{{ReferenceTypeID: ReferenceTypeOrganizes, NodeID: a.NodeID()}})
	a.SetReferences([]entities.ReferenceDescription{
		{ReferenceTypeID: ReferenceTypeOrganizes, NodeID: b.NodeID()},
		{ReferenceTypeID: ReferenceTypeOrganizes, NodeID: c.NodeID()},
	})
	b.SetReferences([]entities.ReferenceDescription{{ReferenceTypeID: ReferenceTypeOrganizes, NodeID: d.NodeID()}})
	c.SetReferences([]entities.ReferenceDescription{{ReferenceTypeID: ReferenceTypeOrganizes, NodeID: d.NodeID()}})
	d.SetReferences(nil)

	tree, err := Finalize(store, root.NodeID(), zap.NewNop())
	require.NoError(t, err)

	aObj := tree["organizes"].([]map[string]interface{})[0]
	bObj := aObj["organizes"].([]map[string]interface{})[0]
	cObj := aObj["organizes"].([]map[string]interface{})[1]

	dViaB := bObj["organizes"].([]map[string]interface{})[0]
	dViaC := cObj["organizes"].([]map[string]interface{})[0]

	assert.Equal(t, "D", dViaB["browseName"])
	assert.Equal(t, "D", dViaC["browseName"])
	// The second descent into D stops: no organizes key re-expanded there.
	_, hasEdge := dViaC["organizes"]
	assert.False(t, hasEdge)
}

func TestFinalize_Cycle_TerminatesAndBreaksRecursion(t *testing.T) {
	store := NewCacheNodeStore()
	PrepopulateReferenceTypes(store)

	a := store.Create(valueobjects.NewNodeID(1, 1))
	a.SetBrowseName(valueobjects.QualifiedName{Name: "A"})
	b := store.Create(valueobjects.NewNodeID(1, 2))
	b.SetBrowseName(valueobjects.QualifiedName{Name: "B"})

	a.SetReferences([]entities.ReferenceDescription{{ReferenceTypeID: ReferenceTypeOrganizes, NodeID: b.NodeID()}})
	b.SetReferences([]entities.ReferenceDescription{{ReferenceTypeID: ReferenceTypeOrganizes, NodeID: a.NodeID()}})

	tree, err := Finalize(store, a.NodeID(), zap.NewNop())
	require.NoError(t, err)

	bObj := tree["organizes"].([]map[string]interface{})[0]
	assert.Equal(t, "B", bObj["browseName"])

	aViaB := bObj["organizes"].([]map[string]interface{})[0]
	assert.Equal(t, "A", aViaB["browseName"])
	_, hasEdge := aViaB["organizes"]
	assert.False(t, hasEdge, "recursion into the already-visited root must stop")
}

func TestFinalize_CycleThroughNonGuardedEdge_DoesNotRecurse(t *testing.T) {
	store := NewCacheNodeStore()
	PrepopulateReferenceTypes(store)

	a := store.Create(valueobjects.NewNodeID(1, 1))
	a.SetBrowseName(valueobjects.QualifiedName{Name: "A"})
	b := store.Create(valueobjects.NewNodeID(1, 2))
	b.SetBrowseName(valueobjects.QualifiedName{Name: "B"})

	// HasSubtype is not in guardedEdges: the walk must still terminate by
	// never descending past the first level of this edge, not by deduping
	// against a visited set the way it does for organizes/hasComponent/etc.
	a.SetReferences([]entities.ReferenceDescription{{ReferenceTypeID: ReferenceTypeHasSubtype, NodeID: b.NodeID()}})
	b.SetReferences([]entities.ReferenceDescription{{ReferenceTypeID: ReferenceTypeHasSubtype, NodeID: a.NodeID()}})

	tree, err := Finalize(store, a.NodeID(), zap.NewNop())
	require.NoError(t, err)

	bObj := tree["hasSubtype"].([]map[string]interface{})[0]
	assert.Equal(t, "B", bObj["browseName"])
	_, hasEdge := bObj["hasSubtype"]
	assert.False(t, hasEdge, "non-guarded edges are left as shallow stubs, never recursed into")
}
