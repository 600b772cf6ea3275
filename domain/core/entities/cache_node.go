package entities

import (
	"sync"

	"addrspace-crawler/domain/core/valueobjects"
	pkgerrors "addrspace-crawler/pkg/errors"
)

// AttributeValue is whatever a successful read or status-descriptor yields
// for one (nodeId, attributeId) pair (spec §4.2): the decoded value, a bare
// nil (Good status, null value), or a minimal {name: symbolicStatusCode}
// error descriptor.
type AttributeValue struct {
	Value     interface{}
	ErrorName string // non-empty iff this slot holds a status-failure descriptor
}

// IsError reports whether this slot is an error descriptor rather than a value.
func (v AttributeValue) IsError() bool {
	return v.ErrorName != ""
}

// CacheNode is the canonical record for one discovered node (spec §3). There
// is at most one instance per NodeID — the cache store enforces that by
// interning on the string form of the identifier (data model invariant 1).
type CacheNode struct {
	mu sync.RWMutex

	nodeID         valueobjects.NodeID
	browseName     valueobjects.QualifiedName
	displayName    valueobjects.LocalizedText
	hasDisplayName bool
	nodeClass      NodeClass
	typeDefinition valueobjects.NodeID

	references     []ReferenceDescription
	referencesSet  bool

	// Variable-only attributes (optional; present only when NodeClass == Variable).
	dataType                AttributeValue
	hasDataType             bool
	dataValue               AttributeValue
	hasDataValue            bool
	minimumSamplingInterval AttributeValue
	hasMinimumSamplingInterval bool
	accessLevel             AttributeValue
	hasAccessLevel          bool
	userAccessLevel         AttributeValue
	hasUserAccessLevel      bool
}

// NewCacheNode creates a fresh cache node, BrowseName pending (invariant 3).
func NewCacheNode(id valueobjects.NodeID) *CacheNode {
	return &CacheNode{
		nodeID:     id,
		browseName: valueobjects.PendingBrowseName,
	}
}

// NewPrepopulatedCacheNode creates a synthetic node whose BrowseName is
// already resolved — used by the reference-type prepopulator (spec §4.4):
// these nodes are never browsed or read.
func NewPrepopulatedCacheNode(id valueobjects.NodeID, browseName string) *CacheNode {
	return &CacheNode{
		nodeID:     id,
		browseName: valueobjects.QualifiedName{Name: browseName},
		nodeClass:  NodeClassReferenceType,
	}
}

func (n *CacheNode) NodeID() valueobjects.NodeID {
	return n.nodeID
}

func (n *CacheNode) BrowseName() valueobjects.QualifiedName {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.browseName
}

// SetBrowseName resolves the pending sentinel to a real name. Calling it
// again with the same already-resolved value is a no-op; calling it with a
// different value once resolved is a programming error (invariant 3: the
// transition happens exactly once).
func (n *CacheNode) SetBrowseName(name valueobjects.QualifiedName) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.browseName.IsPending() {
		if n.browseName == name {
			return
		}
		panic(pkgerrors.NewProgrammingError("BrowseName already resolved for " + string(n.nodeID)))
	}
	n.browseName = name
}

func (n *CacheNode) DisplayName() (valueobjects.LocalizedText, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.displayName, n.hasDisplayName
}

func (n *CacheNode) SetDisplayName(name valueobjects.LocalizedText) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.displayName = name
	n.hasDisplayName = true
}

func (n *CacheNode) NodeClass() NodeClass {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.nodeClass
}

// SetNodeClass records the class. Per the spec's Open Question (§9), a
// NodeClass prefilled from a ReferenceDescription hint is never overwritten
// by a later direct read — the first writer wins.
func (n *CacheNode) SetNodeClass(class NodeClass) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.nodeClass != NodeClassUnspecified {
		return
	}
	n.nodeClass = class
}

func (n *CacheNode) TypeDefinition() (valueobjects.NodeID, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.typeDefinition, !n.typeDefinition.IsEmpty()
}

func (n *CacheNode) SetTypeDefinition(id valueobjects.NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.typeDefinition = id
}

func (n *CacheNode) References() ([]ReferenceDescription, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.references, n.referencesSet
}

// SetReferences assigns the node's outgoing references exactly once
// (invariant 2). A second assignment is a programming error.
func (n *CacheNode) SetReferences(refs []ReferenceDescription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.referencesSet {
		panic(pkgerrors.NewProgrammingError("references already assigned for " + string(n.nodeID)))
	}
	n.references = refs
	n.referencesSet = true
}

func (n *CacheNode) DataType() (AttributeValue, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.dataType, n.hasDataType
}

func (n *CacheNode) SetDataType(v AttributeValue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dataType, n.hasDataType = v, true
}

func (n *CacheNode) DataValue() (AttributeValue, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.dataValue, n.hasDataValue
}

func (n *CacheNode) SetDataValue(v AttributeValue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dataValue, n.hasDataValue = v, true
}

func (n *CacheNode) MinimumSamplingInterval() (AttributeValue, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.minimumSamplingInterval, n.hasMinimumSamplingInterval
}

func (n *CacheNode) SetMinimumSamplingInterval(v AttributeValue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minimumSamplingInterval, n.hasMinimumSamplingInterval = v, true
}

func (n *CacheNode) AccessLevel() (AttributeValue, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.accessLevel, n.hasAccessLevel
}

func (n *CacheNode) SetAccessLevel(v AttributeValue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accessLevel, n.hasAccessLevel = v, true
}

func (n *CacheNode) UserAccessLevel() (AttributeValue, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.userAccessLevel, n.hasUserAccessLevel
}

func (n *CacheNode) SetUserAccessLevel(v AttributeValue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.userAccessLevel, n.hasUserAccessLevel = v, true
}
