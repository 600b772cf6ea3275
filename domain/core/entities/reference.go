package entities

import "addrspace-crawler/domain/core/valueobjects"

// ReferenceDescription is the protocol's raw browse-result record: one
// outgoing reference from the node that was browsed, together with the
// "free" attribute hints the server included in the browse reply.
type ReferenceDescription struct {
	ReferenceTypeID valueobjects.NodeID
	IsForward       bool
	NodeID          valueobjects.NodeID
	BrowseName      valueobjects.QualifiedName
	DisplayName     valueobjects.LocalizedText
	NodeClass       NodeClass
	TypeDefinition  valueobjects.NodeID
}

// key identifies a reference for dedup purposes: spec §4.6.1 step 1 collapses
// entries with identical (referenceTypeId, nodeId), first occurrence wins.
func (r ReferenceDescription) key() refKey {
	return refKey{referenceTypeID: r.ReferenceTypeID, nodeID: r.NodeID}
}

type refKey struct {
	referenceTypeID valueobjects.NodeID
	nodeID          valueobjects.NodeID
}

// DedupReferences collapses references sharing (referenceTypeId, nodeId),
// keeping the first occurrence, and reports how many duplicates were dropped.
func DedupReferences(refs []ReferenceDescription) (deduped []ReferenceDescription, duplicates int) {
	seen := make(map[refKey]struct{}, len(refs))
	deduped = make([]ReferenceDescription, 0, len(refs))
	for _, r := range refs {
		k := r.key()
		if _, ok := seen[k]; ok {
			duplicates++
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, r)
	}
	return deduped, duplicates
}
