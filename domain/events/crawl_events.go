package events

import (
	"time"

	"github.com/google/uuid"

	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
)

// DomainEvent is the minimal contract every crawl event satisfies.
type DomainEvent interface {
	GetEventType() string
}

// BaseEvent carries the fields common to every crawl event.
type BaseEvent struct {
	EventID     string
	EventType   string
	Timestamp   time.Time
	AggregateID string
}

func (e BaseEvent) GetEventType() string {
	return e.EventType
}

// Browsed is emitted once per node, after its references are known
// (spec §6: "Event: 'browsed' emitted with (cacheNode, userData)").
type Browsed struct {
	BaseEvent
	Node     *entities.CacheNode
	UserData interface{}
}

// NewBrowsed builds a Browsed event for the given node.
func NewBrowsed(node *entities.CacheNode, userData interface{}) Browsed {
	return Browsed{
		BaseEvent: BaseEvent{
			EventID:     uuid.New().String(),
			EventType:   TypeBrowsed,
			Timestamp:   time.Now(),
			AggregateID: node.NodeID().String(),
		},
		Node:     node,
		UserData: userData,
	}
}

// End is emitted once per crawl, when the scheduler's queue and both batchers
// have drained (spec §6: event "end" emitted on quiescence), or when the first
// failure has stopped the crawl; Err then holds that failure.
type End struct {
	BaseEvent
	RootNodeID valueobjects.NodeID
	Err        error
}

// NewEnd builds an End event for the crawl rooted at rootNodeID.
func NewEnd(rootNodeID valueobjects.NodeID, err error) End {
	return End{
		BaseEvent: BaseEvent{
			EventID:     uuid.New().String(),
			EventType:   TypeEnd,
			Timestamp:   time.Now(),
			AggregateID: rootNodeID.String(),
		},
		RootNodeID: rootNodeID,
		Err:        err,
	}
}
