package services

import (
	"sync"

	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
	pkgerrors "addrspace-crawler/pkg/errors"
)

// CacheNodeStore owns every discovered node, keyed by the canonical string
// form of its identifier (spec §4.1). It is the single source of truth for
// node state; nothing else in this package allocates a CacheNode directly.
type CacheNodeStore struct {
	mu    sync.RWMutex
	nodes map[valueobjects.NodeID]*entities.CacheNode
}

// NewCacheNodeStore creates an empty store.
func NewCacheNodeStore() *CacheNodeStore {
	return &CacheNodeStore{nodes: make(map[valueobjects.NodeID]*entities.CacheNode)}
}

// Get returns the node for id, or nil if it hasn't been discovered yet.
func (s *CacheNodeStore) Get(id valueobjects.NodeID) *entities.CacheNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id]
}

// GetOrCreate returns the existing node for id, creating one if absent.
// Creation here is idempotent (spec §4.1).
func (s *CacheNodeStore) GetOrCreate(id valueobjects.NodeID) *entities.CacheNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node, ok := s.nodes[id]; ok {
		return node
	}
	node := entities.NewCacheNode(id)
	s.nodes[id] = node
	return node
}

// Create allocates a new node for id. It panics if one already exists —
// spec §4.1: "create on an existing key is a programming error."
func (s *CacheNodeStore) Create(id valueobjects.NodeID) *entities.CacheNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; ok {
		panic(pkgerrors.NewProgrammingError("cache node already exists: " + string(id)))
	}
	node := entities.NewCacheNode(id)
	s.nodes[id] = node
	return node
}

// CreatePrepopulated seeds a synthetic, already-resolved node (spec §4.1,
// §4.4). It panics on a duplicate key for the same reason Create does.
func (s *CacheNodeStore) CreatePrepopulated(id valueobjects.NodeID, browseName string) *entities.CacheNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; ok {
		panic(pkgerrors.NewProgrammingError("cache node already exists: " + string(id)))
	}
	node := entities.NewPrepopulatedCacheNode(id, browseName)
	s.nodes[id] = node
	return node
}

// Len returns the number of nodes currently cached.
func (s *CacheNodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// All returns every cached node, in no particular order.
func (s *CacheNodeStore) All() []*entities.CacheNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.CacheNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out
}
