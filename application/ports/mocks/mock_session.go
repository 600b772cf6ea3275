// Package mocks provides an in-memory Session for testing the crawler
// without a real OPC UA endpoint.
package mocks

import (
	"context"
	"sync"

	"addrspace-crawler/application/ports"
	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
)

// MockNode is one synthetic node's browse/read data, keyed by NodeID in the
// owning MockSession's address space.
type MockNode struct {
	References []entities.ReferenceDescription
	Attributes map[entities.AttributeID]ports.DataValue
}

// MockSession is an in-memory address space for unit tests: a fixed set of
// nodes wired up front, served back through the Session interface with the
// same batching contract a real server would apply (bounded response count,
// no continuation points).
type MockSession struct {
	mu sync.RWMutex

	nodes             map[valueobjects.NodeID]MockNode
	maxNodesPerRead   int
	maxNodesPerBrowse int

	shouldFailOn map[string]error

	browseCalls int
	readCalls   int
}

// NewMockSession creates an empty address space. Use AddNode to populate it
// before crawling.
func NewMockSession() *MockSession {
	return &MockSession{
		nodes:        make(map[valueobjects.NodeID]MockNode),
		shouldFailOn: make(map[string]error),
	}
}

// AddNode registers a synthetic node's references and attribute values.
func (m *MockSession) AddNode(id valueobjects.NodeID, node MockNode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[id] = node
}

// SetOperationalLimits configures what OperationalLimits reports; zero means
// "server doesn't advertise a limit" (spec §6's default-to-500 rule).
func (m *MockSession) SetOperationalLimits(maxRead, maxBrowse int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxNodesPerRead = maxRead
	m.maxNodesPerBrowse = maxBrowse
}

// SetError configures the mock to fail the named operation ("Browse" or
// "Read") on every subsequent call, for exercising spec §7's transport path.
func (m *MockSession) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn[method] = err
}

// BrowseCallCount reports how many Browse round-trips were issued.
func (m *MockSession) BrowseCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browseCalls
}

// ReadCallCount reports how many Read round-trips were issued.
func (m *MockSession) ReadCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readCalls
}

func (m *MockSession) Browse(ctx context.Context, descriptions []ports.BrowseDescription) ([]ports.BrowseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.browseCalls++
	if err := m.shouldFailOn["Browse"]; err != nil {
		return nil, err
	}
	if m.maxNodesPerBrowse > 0 && len(descriptions) > m.maxNodesPerBrowse {
		panic("mock session: browse batch exceeds advertised MaxNodesPerBrowse")
	}

	results := make([]ports.BrowseResult, len(descriptions))
	for i, desc := range descriptions {
		node := m.nodes[desc.NodeID]
		results[i] = ports.BrowseResult{References: node.References}
	}
	return results, nil
}

func (m *MockSession) Read(ctx context.Context, requests []ports.ReadValueID) ([]ports.DataValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readCalls++
	if err := m.shouldFailOn["Read"]; err != nil {
		return nil, err
	}
	if m.maxNodesPerRead > 0 && len(requests) > m.maxNodesPerRead {
		panic("mock session: read batch exceeds advertised MaxNodesPerRead")
	}

	results := make([]ports.DataValue, len(requests))
	for i, req := range requests {
		node := m.nodes[req.NodeID]
		if value, ok := node.Attributes[req.AttributeID]; ok {
			results[i] = value
			continue
		}
		results[i] = ports.DataValue{StatusCode: entities.Good, Value: nil}
	}
	return results, nil
}

func (m *MockSession) OperationalLimits(ctx context.Context) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxNodesPerRead, m.maxNodesPerBrowse, nil
}
