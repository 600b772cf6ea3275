package services

import (
	"unicode"

	"go.uber.org/zap"

	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
	"addrspace-crawler/internal/infrastructure/concurrency"
)

// scalarFields are the keys Finalize ever sets directly on an object, as
// opposed to edge arrays derived from references (spec §4.7 step 1).
var scalarFields = map[string]bool{
	"nodeId": true, "browseName": true, "nodeClass": true,
	"dataType": true, "dataValue": true, "typeDefinition": true,
}

// guardedEdges are the only edge names the cycle-breaking walk descends into
// and deduplicates (spec §4.7 step 4). Children on any other edge name are
// emitted as shallow stubs and are not deduplicated.
var guardedEdges = map[string]bool{
	"organizes": true, "hasComponent": true, "hasNotifier": true, "hasProperty": true,
}

// lowerFirstLetter derives an edge name from a reference type's BrowseName,
// e.g. "Organizes" -> "organizes" (spec §4.7 step 1).
func lowerFirstLetter(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// attributeOutput converts a resolved attribute slot to its output form: the
// raw value on success, or the minimal {name: symbolicStatusCode} descriptor
// on a per-attribute status failure (spec §4.2, §7).
func attributeOutput(v entities.AttributeValue) interface{} {
	if v.IsError() {
		return map[string]interface{}{"name": v.ErrorName}
	}
	return v.Value
}

// Finalize converts the cache graph reachable from rootNodeID into a
// denormalized, cycle-broken object tree (spec §4.7). It assumes the crawl
// that populated store has already drained to quiescence.
func Finalize(store *CacheNodeStore, rootNodeID valueobjects.NodeID, logger *zap.Logger) (map[string]interface{}, error) {
	graph := buildGraph(store, rootNodeID, logger)
	root, ok := graph[rootNodeID]
	if !ok {
		return nil, nil
	}
	visited := map[string]bool{rootNodeID.String(): true}
	return pruneCycles(root, visited), nil
}

// buildGraph materializes one denormalized object per reachable cache node,
// via a second single-consumer queue so that a deep address space does not
// recurse the host stack (spec §4.7 step 3). The resulting graph still
// contains real cycles — two objects can point at each other through shared
// map references — which pruneCycles resolves afterward.
func buildGraph(store *CacheNodeStore, rootNodeID valueobjects.NodeID, logger *zap.Logger) map[valueobjects.NodeID]map[string]interface{} {
	built := make(map[valueobjects.NodeID]map[string]interface{})
	queue := concurrency.NewWorkQueue()

	allocate := func(id valueobjects.NodeID) (map[string]interface{}, bool) {
		if obj, ok := built[id]; ok {
			return obj, false
		}
		obj := map[string]interface{}{}
		built[id] = obj
		return obj, true
	}

	var scheduleFill func(id valueobjects.NodeID)
	scheduleFill = func(id valueobjects.NodeID) {
		queue.Push(func() error {
			node := store.Get(id)
			if node == nil {
				return nil
			}
			obj := built[id]
			obj["nodeId"] = id.String()
			obj["browseName"] = node.BrowseName().String()
			if nc := node.NodeClass(); nc != entities.NodeClassUnspecified {
				obj["nodeClass"] = string(nc)
			}
			if dt, ok := node.DataType(); ok {
				obj["dataType"] = attributeOutput(dt)
			}
			if dv, ok := node.DataValue(); ok {
				obj["dataValue"] = attributeOutput(dv)
			}

			refs, _ := node.References()
			for _, ref := range refs {
				refTypeNode := store.Get(ref.ReferenceTypeID)
				if refTypeNode == nil {
					logger.Warn("unknown reference type at finalization; edge skipped",
						zap.String("referenceTypeId", ref.ReferenceTypeID.String()),
						zap.String("nodeId", id.String()))
					continue
				}
				edgeName := lowerFirstLetter(refTypeNode.BrowseName().String())

				childObj, isNew := allocate(ref.NodeID)
				if isNew {
					scheduleFill(ref.NodeID)
				}

				if edgeName == "hasTypeDefinition" {
					obj["typeDefinition"] = childNameOrEmpty(store, ref.NodeID)
					continue
				}

				list, _ := obj[edgeName].([]map[string]interface{})
				obj[edgeName] = append(list, childObj)
			}
			return nil
		})
	}

	allocate(rootNodeID)
	scheduleFill(rootNodeID)

	for {
		task, ok := queue.Pop()
		if !ok {
			break
		}
		task() // fill tasks never fail
	}

	return built
}

func childNameOrEmpty(store *CacheNodeStore, id valueobjects.NodeID) string {
	node := store.Get(id)
	if node == nil {
		return ""
	}
	return node.BrowseName().String()
}

// pruneCycles is the cycle-breaking walk (spec §4.7 step 4). It only
// descends into the four guarded edge names, deduplicating against a node
// identifier it has already visited by leaving that entry as a childless
// stub. Every other edge name is left as a shallow stub of its children:
// spec §4.7 step 4 names exactly which edges the walk traverses, and
// recursing into the rest would mean following arbitrary, possibly cyclic
// reference types (HasSubtype, HasEventSource, custom types) with no visited
// guard at all, unbounded stack growth on a valid graph. visited is shared
// mutable state across the whole walk, not per-branch, matching the diamond
// scenario (spec §8 S2): a shared target is only ever expanded once.
func pruneCycles(obj map[string]interface{}, visited map[string]bool) map[string]interface{} {
	out := make(map[string]interface{}, len(obj))
	for key := range scalarFields {
		if v, ok := obj[key]; ok {
			out[key] = v
		}
	}

	for key, value := range obj {
		if scalarFields[key] {
			continue
		}
		children, ok := value.([]map[string]interface{})
		if !ok {
			continue
		}

		guarded := guardedEdges[key]
		outList := make([]map[string]interface{}, 0, len(children))
		for _, child := range children {
			if !guarded {
				outList = append(outList, stub(child))
				continue
			}

			childID, _ := child["nodeId"].(string)
			if visited[childID] {
				outList = append(outList, stub(child))
				continue
			}
			visited[childID] = true
			outList = append(outList, pruneCycles(child, visited))
		}
		out[key] = outList
	}
	return out
}

// stub copies only a node's scalar fields, truncating its subtree — used
// when the cycle-breaking walk hits an already-visited node on a guarded
// edge (spec §4.7 step 4: "its reference in the parent remains, but further
// children are not re-expanded"), and for every child on a non-guarded edge.
func stub(obj map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(scalarFields))
	for key := range scalarFields {
		if v, ok := obj[key]; ok {
			out[key] = v
		}
	}
	return out
}
