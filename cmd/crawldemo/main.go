// Command crawldemo runs the crawler against an in-memory address space
// containing a diamond (spec §8 scenario S2) and a cycle (scenario S3), then
// prints the resulting denormalized tree as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"addrspace-crawler/application/ports"
	"addrspace-crawler/application/ports/mocks"
	"addrspace-crawler/application/services"
	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
	"addrspace-crawler/domain/events"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	session := buildDemoSession()

	ctx := context.Background()
	crawler, err := services.NewCrawler(ctx, session, logger)
	if err != nil {
		logger.Fatal("failed to create crawler", zap.Error(err))
	}

	crawler.On(events.TypeBrowsed, func(event events.DomainEvent) {
		browsed := event.(events.Browsed)
		logger.Debug("browsed", zap.String("nodeId", browsed.Node.NodeID().String()))
	})

	root := valueobjects.NewNodeID(1, 1)
	tree, err := crawler.Read(ctx, root)
	if err != nil {
		logger.Fatal("crawl failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		logger.Fatal("failed to marshal tree", zap.Error(err))
	}
	fmt.Println(string(out))
	fmt.Printf("reads=%d browses=%d transactions=%d\n",
		crawler.ReadCounter(), crawler.BrowseCounter(), crawler.TransactionCounter())
}

// buildDemoSession wires a small address space:
//
//	root --organizes--> A --organizes--> B --organizes--> D
//	                     \--organizes--> C --organizes--> D   (diamond on D)
//	root --organizes--> E --organizes--> F --organizes--> E   (cycle E<->F)
func buildDemoSession() *mocks.MockSession {
	session := mocks.NewMockSession()

	organizes := services.ReferenceTypeOrganizes

	ref := func(id valueobjects.NodeID, name string) entities.ReferenceDescription {
		return entities.ReferenceDescription{
			ReferenceTypeID: organizes,
			IsForward:       true,
			NodeID:          id,
			BrowseName:      valueobjects.QualifiedName{NamespaceIndex: 1, Name: name},
			DisplayName:     valueobjects.LocalizedText{Text: name},
			NodeClass:       entities.NodeClassObject,
		}
	}

	root := valueobjects.NewNodeID(1, 1)
	a := valueobjects.NewNodeID(1, 2)
	b := valueobjects.NewNodeID(1, 3)
	c := valueobjects.NewNodeID(1, 4)
	d := valueobjects.NewNodeID(1, 5)
	e := valueobjects.NewNodeID(1, 6)
	f := valueobjects.NewNodeID(1, 7)

	session.AddNode(root, mocks.MockNode{
		References: []entities.ReferenceDescription{ref(a, "A"), ref(e, "E")},
		Attributes: map[entities.AttributeID]ports.DataValue{
			entities.AttributeNodeClass: {StatusCode: entities.Good, Value: entities.NodeClassObject},
		},
	})
	session.AddNode(a, mocks.MockNode{References: []entities.ReferenceDescription{ref(b, "B"), ref(c, "C")}})
	session.AddNode(b, mocks.MockNode{References: []entities.ReferenceDescription{ref(d, "D")}})
	session.AddNode(c, mocks.MockNode{References: []entities.ReferenceDescription{ref(d, "D")}})
	session.AddNode(d, mocks.MockNode{})
	session.AddNode(e, mocks.MockNode{References: []entities.ReferenceDescription{ref(f, "F")}})
	session.AddNode(f, mocks.MockNode{References: []entities.ReferenceDescription{ref(e, "E")}})

	return session
}
