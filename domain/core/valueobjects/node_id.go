// Package valueobjects holds the small, immutable identifiers and name types
// shared across the crawler's domain model.
package valueobjects

import "fmt"

// NodeID is the canonical string form of a node identifier
// (namespaceIndex, identifier). Two NodeIDs are the same node iff their
// string forms are equal — this is the interning key the cache store uses.
type NodeID string

// NewNodeID builds the canonical string form of a numeric identifier in a
// namespace, e.g. NewNodeID(0, 2253) -> "ns=0;i=2253".
func NewNodeID(namespaceIndex uint16, identifier interface{}) NodeID {
	return NodeID(fmt.Sprintf("ns=%d;i=%v", namespaceIndex, identifier))
}

// String returns the canonical string form.
func (id NodeID) String() string {
	return string(id)
}

// IsEmpty reports whether the identifier is the zero value.
func (id NodeID) IsEmpty() bool {
	return id == ""
}

// QualifiedName is a (namespaceIndex, name) pair used for BrowseName. pending
// marks the unresolved sentinel and is never set by a keyed literal outside
// this package, so a legitimately resolved name of "pending" in namespace 0
// can never be mistaken for the sentinel.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
	pending        bool
}

// PendingBrowseName is the sentinel value a CacheNode's BrowseName holds
// until it resolves — spec data model invariant 3.
var PendingBrowseName = QualifiedName{Name: "pending", pending: true}

// IsPending reports whether this name is still the unresolved sentinel.
func (q QualifiedName) IsPending() bool {
	return q.pending
}

func (q QualifiedName) String() string {
	return q.Name
}

// LocalizedText is a localized display string.
type LocalizedText struct {
	Locale string
	Text   string
}

func (t LocalizedText) String() string {
	return t.Text
}
