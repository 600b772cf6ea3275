// Package ports defines the interfaces the crawler consumes from the outside
// world (spec §1: "out of scope... specified only by interface").
package ports

import (
	"context"

	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
)

// BrowseDirection mirrors the protocol's forward/inverse/both enumeration.
// The crawler only ever issues Forward browses (spec §4.3).
type BrowseDirection int

const (
	BrowseDirectionForward BrowseDirection = iota
	BrowseDirectionInverse
	BrowseDirectionBoth
)

// ResultMask is a bitmask of the reference fields the crawler asks the
// server to populate in a BrowseResult (spec §4.3).
type ResultMask uint32

const (
	ResultMaskReferenceType ResultMask = 1 << iota
	ResultMaskIsForward
	ResultMaskBrowseName
	ResultMaskDisplayName
	ResultMaskNodeClass
	ResultMaskTypeDefinition
)

// BrowseDescription is one element of a Session.Browse request.
type BrowseDescription struct {
	NodeID          valueobjects.NodeID
	BrowseDirection BrowseDirection
	ReferenceTypeID valueobjects.NodeID
	IncludeSubtypes bool
	ResultMask      ResultMask
}

// BrowseResult is one element of a Session.Browse response.
type BrowseResult struct {
	References       []entities.ReferenceDescription
	ContinuationPoint []byte // must be nil/empty; spec §4.3: continuation points are not supported
}

// ReadValueID is one element of a Session.Read request.
type ReadValueID struct {
	NodeID      valueobjects.NodeID
	AttributeID entities.AttributeID
}

// DataValue is one element of a Session.Read response.
type DataValue struct {
	StatusCode entities.StatusCode
	Value      interface{} // nil means "Good status, null value" (spec §4.2)
}

// Session is the transport the crawler drives: an authenticated connection
// exposing browse and read as synchronous-from-the-caller's-view batch
// operations (spec §6).
type Session interface {
	Browse(ctx context.Context, descriptions []BrowseDescription) ([]BrowseResult, error)
	Read(ctx context.Context, requests []ReadValueID) ([]DataValue, error)

	// OperationalLimits reports the server-advertised MaxNodesPerRead and
	// MaxNodesPerBrowse. Implementations that have no such limits return
	// (0, 0); the crawler applies the spec's default-to-500 rule itself.
	OperationalLimits(ctx context.Context) (maxNodesPerRead, maxNodesPerBrowse int, err error)
}
