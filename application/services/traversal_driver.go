package services

import (
	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
	"addrspace-crawler/internal/infrastructure/concurrency"
)

// OnBrowseHook is the optional userData callback spec §6 calls onBrowse: it
// fires synchronously once a node's references are known, and is how the
// default traversal recurses into followReference.
type OnBrowseHook interface {
	OnBrowse(crawler *Crawler, node *entities.CacheNode, userData interface{})
}

// SetExtraReferenceHook is the optional userData callback spec §4.6.2 fires
// when a reference points to a node that is already crawled: it records the
// extra edge without re-crawling the target.
type SetExtraReferenceHook interface {
	SetExtraReference(parent *entities.CacheNode, reference entities.ReferenceDescription, child *entities.CacheNode, userData interface{})
}

// DefaultUserData is the crawler's default traversal behavior: it recurses
// into every reference of a browsed node (spec §4.6: "this is how the
// default traversal recurses (followReference on every reference)").
type DefaultUserData struct{}

// OnBrowse implements OnBrowseHook.
func (DefaultUserData) OnBrowse(crawler *Crawler, node *entities.CacheNode, userData interface{}) {
	crawler.followReference(node, userData)
}

// SetExtraReference implements SetExtraReferenceHook as a no-op: the default
// traversal does not track extra edges beyond what the finalizer discovers
// from each node's own reference list.
func (DefaultUserData) SetExtraReference(parent *entities.CacheNode, reference entities.ReferenceDescription, child *entities.CacheNode, userData interface{}) {
}

// joinGroup runs done once every add()'d unit of work has called done(),
// tolerating units that complete synchronously inside the add loop itself
// (AttributeReadBatcher.DeferRead may invoke its callback immediately when
// the value is already memoized).
type joinGroup struct {
	pending int
	done    func()
	fired   bool
}

func newJoinGroup(done func()) *joinGroup {
	return &joinGroup{pending: 1, done: done}
}

func (j *joinGroup) add() {
	j.pending++
}

func (j *joinGroup) complete() {
	j.pending--
	if j.pending == 0 && !j.fired {
		j.fired = true
		j.done()
	}
}

// crawlNode is the "crawl task" for one cache node (spec §4.6).
func (c *Crawler) crawlNode(node *entities.CacheNode, userData interface{}) concurrency.Task {
	return func() error {
		if c.visited[node.NodeID()] {
			return nil
		}
		c.visited[node.NodeID()] = true

		c.browseBatcher.DeferBrowse(node, ReferenceTypeReferences, func(refs []entities.ReferenceDescription, err error) {
			if err != nil {
				c.fail(err)
				return
			}
			c.processBrowseResponse(node, refs, userData)
		})
		return nil
	}
}

// processBrowseResponse implements spec §4.6.1: record references, copy the
// type definition, prefill "free" attribute hints, then resolve the node's
// own missing attributes before handing off to browseNodeAction.
func (c *Crawler) processBrowseResponse(node *entities.CacheNode, refs []entities.ReferenceDescription, userData interface{}) {
	// A node browsed again by a later Crawl keeps the references from its
	// first browse (invariant 2: references are assigned exactly once).
	if _, set := node.References(); !set {
		node.SetReferences(refs)
	}

	for _, ref := range refs {
		if ref.ReferenceTypeID == ReferenceTypeHasTypeDefinition {
			node.SetTypeDefinition(ref.NodeID)
		}
		if !ref.BrowseName.IsPending() {
			c.readBatcher.Prefill(ref.NodeID, entities.AttributeBrowseName, ref.BrowseName)
		}
		if ref.DisplayName.Text != "" {
			c.readBatcher.Prefill(ref.NodeID, entities.AttributeDisplayName, ref.DisplayName)
		}
		if ref.NodeClass != entities.NodeClassUnspecified {
			c.readBatcher.Prefill(ref.NodeID, entities.AttributeNodeClass, ref.NodeClass)
		}
	}

	c.resolveNodeClassThenAttributes(node, func() {
		c.browseNodeAction(node, userData)
	})
}

func (c *Crawler) resolveNodeClassThenAttributes(node *entities.CacheNode, done func()) {
	if node.NodeClass() != entities.NodeClassUnspecified {
		c.resolveRemainingAttributes(node, done)
		return
	}
	c.readBatcher.DeferRead(node.NodeID(), entities.AttributeNodeClass, func(v entities.AttributeValue) {
		if !v.IsError() {
			if nc, ok := v.Value.(entities.NodeClass); ok {
				node.SetNodeClass(nc)
			} else if s, ok := v.Value.(string); ok {
				node.SetNodeClass(entities.NodeClass(s))
			}
		}
		c.resolveRemainingAttributes(node, done)
	})
}

func (c *Crawler) resolveRemainingAttributes(node *entities.CacheNode, done func()) {
	join := newJoinGroup(done)

	if node.BrowseName().IsPending() {
		join.add()
		c.readBatcher.DeferRead(node.NodeID(), entities.AttributeBrowseName, func(v entities.AttributeValue) {
			if !v.IsError() {
				if qn, ok := v.Value.(valueobjects.QualifiedName); ok {
					node.SetBrowseName(qn)
				} else if s, ok := v.Value.(string); ok {
					node.SetBrowseName(valueobjects.QualifiedName{Name: s})
				}
			}
			join.complete()
		})
	}

	if _, has := node.DisplayName(); !has {
		join.add()
		c.readBatcher.DeferRead(node.NodeID(), entities.AttributeDisplayName, func(v entities.AttributeValue) {
			if !v.IsError() {
				if lt, ok := v.Value.(valueobjects.LocalizedText); ok {
					node.SetDisplayName(lt)
				} else if s, ok := v.Value.(string); ok {
					node.SetDisplayName(valueobjects.LocalizedText{Text: s})
				}
			}
			join.complete()
		})
	}

	if node.NodeClass().IsVariable() {
		join.add()
		c.readBatcher.DeferRead(node.NodeID(), entities.AttributeDataType, func(v entities.AttributeValue) {
			node.SetDataType(v)
			join.complete()
		})
		join.add()
		c.readBatcher.DeferRead(node.NodeID(), entities.AttributeValueAttr, func(v entities.AttributeValue) {
			node.SetDataValue(v)
			join.complete()
		})
		join.add()
		c.readBatcher.DeferRead(node.NodeID(), entities.AttributeMinimumSamplingInterval, func(v entities.AttributeValue) {
			node.SetMinimumSamplingInterval(v)
			join.complete()
		})
		join.add()
		c.readBatcher.DeferRead(node.NodeID(), entities.AttributeAccessLevel, func(v entities.AttributeValue) {
			node.SetAccessLevel(v)
			join.complete()
		})
		join.add()
		c.readBatcher.DeferRead(node.NodeID(), entities.AttributeUserAccessLevel, func(v entities.AttributeValue) {
			node.SetUserAccessLevel(v)
			join.complete()
		})
	}

	join.complete()
}

// browseNodeAction emits the "browsed" event and invokes the user's onBrowse
// hook synchronously (spec §4.6).
func (c *Crawler) browseNodeAction(node *entities.CacheNode, userData interface{}) {
	c.emitBrowsed(node, userData)
	if hook, ok := userData.(OnBrowseHook); ok {
		hook.OnBrowse(c, node, userData)
	}
}

// followReference implements spec §4.6.2 for every reference of a
// just-browsed node.
func (c *Crawler) followReference(node *entities.CacheNode, userData interface{}) {
	refs, _ := node.References()
	for _, ref := range refs {
		c.ensureReferenceTypeCrawled(ref.ReferenceTypeID, userData)

		target := c.store.Get(ref.NodeID)
		if target == nil {
			target = c.createTargetFromReference(ref)
			c.scheduleCrawl(target, userData)
			continue
		}

		if hook, ok := userData.(SetExtraReferenceHook); ok {
			parent := node
			child := target
			c.queue.Push(func() error {
				hook.SetExtraReference(parent, ref, child, userData)
				return nil
			})
		}
	}
}

// ensureReferenceTypeCrawled implements spec §4.6.2 step 1: the reference's
// type node must itself be in the cache and crawled so the finalizer can
// read its BrowseName later.
func (c *Crawler) ensureReferenceTypeCrawled(referenceTypeID valueobjects.NodeID, userData interface{}) {
	node := c.store.Get(referenceTypeID)
	if node == nil {
		node = c.store.GetOrCreate(referenceTypeID)
	}
	if c.crawled[referenceTypeID] {
		return
	}
	c.scheduleCrawl(node, userData)
}

// createTargetFromReference creates a cache node for a reference's target,
// prefilling it from the hints the reference record already carries.
func (c *Crawler) createTargetFromReference(ref entities.ReferenceDescription) *entities.CacheNode {
	node := c.store.Create(ref.NodeID)
	if !ref.BrowseName.IsPending() {
		node.SetBrowseName(ref.BrowseName)
	}
	if ref.DisplayName.Text != "" {
		node.SetDisplayName(ref.DisplayName)
	}
	if !ref.TypeDefinition.IsEmpty() {
		node.SetTypeDefinition(ref.TypeDefinition)
	}
	if ref.NodeClass != entities.NodeClassUnspecified {
		node.SetNodeClass(ref.NodeClass)
	}
	return node
}

// scheduleCrawl marks node crawled (invariant 5: crawled iff scheduled) and
// pushes its crawl task at the tail of the queue (low priority, new work).
func (c *Crawler) scheduleCrawl(node *entities.CacheNode, userData interface{}) {
	c.crawled[node.NodeID()] = true
	c.queue.Push(c.crawlNode(node, userData))
}
