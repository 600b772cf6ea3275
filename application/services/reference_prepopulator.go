package services

import "addrspace-crawler/domain/core/valueobjects"

// Well-known standard reference-type node identifiers (OPC UA namespace 0).
// These are the eight types spec §4.4 requires seeding before any user crawl
// begins, plus the root References type used as the default browse filter.
var (
	ReferenceTypeReferences                  = valueobjects.NewNodeID(0, 31)
	ReferenceTypeHasTypeDefinition            = valueobjects.NewNodeID(0, 40)
	ReferenceTypeHasChild                     = valueobjects.NewNodeID(0, 34)
	ReferenceTypeHasProperty                  = valueobjects.NewNodeID(0, 46)
	ReferenceTypeHasComponent                 = valueobjects.NewNodeID(0, 47)
	ReferenceTypeHasHistoricalConfiguration   = valueobjects.NewNodeID(0, 56)
	ReferenceTypeHasSubtype                   = valueobjects.NewNodeID(0, 45)
	ReferenceTypeOrganizes                    = valueobjects.NewNodeID(0, 35)
	ReferenceTypeHasEventSource                = valueobjects.NewNodeID(0, 36)
)

// wellKnownReferenceTypes maps each prepopulated identifier to its BrowseName.
// The finalizer names edges by lowerFirstLetter(browseName) (spec §4.7), so
// seeding the exact names here is what makes "organizes", "hasComponent",
// "hasTypeDefinition" etc. appear without ever reading them from the server.
var wellKnownReferenceTypes = []struct {
	id   valueobjects.NodeID
	name string
}{
	{ReferenceTypeHasTypeDefinition, "HasTypeDefinition"},
	{ReferenceTypeHasChild, "HasChild"},
	{ReferenceTypeHasProperty, "HasProperty"},
	{ReferenceTypeHasComponent, "HasComponent"},
	{ReferenceTypeHasHistoricalConfiguration, "HasHistoricalConfiguration"},
	{ReferenceTypeHasSubtype, "HasSubtype"},
	{ReferenceTypeOrganizes, "Organizes"},
	{ReferenceTypeHasEventSource, "HasEventSource"},
}

// PrepopulateReferenceTypes seeds store with the standard reference-type
// nodes (spec §4.4, data model invariant 6). Safe to call once per store.
func PrepopulateReferenceTypes(store *CacheNodeStore) {
	for _, rt := range wellKnownReferenceTypes {
		if store.Get(rt.id) != nil {
			continue
		}
		store.CreatePrepopulated(rt.id, rt.name)
	}
}

// WellKnownReferenceTypeIDs lists the identifiers PrepopulateReferenceTypes
// seeds. The traversal driver treats these as already crawled from the
// start — spec §4.4: "no read or browse is ever issued for them."
func WellKnownReferenceTypeIDs() []valueobjects.NodeID {
	ids := make([]valueobjects.NodeID, len(wellKnownReferenceTypes))
	for i, rt := range wellKnownReferenceTypes {
		ids[i] = rt.id
	}
	return ids
}
