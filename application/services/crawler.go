package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"addrspace-crawler/application/ports"
	"addrspace-crawler/domain/core/entities"
	"addrspace-crawler/domain/core/valueobjects"
	"addrspace-crawler/domain/events"
	"addrspace-crawler/internal/infrastructure/concurrency"
	"addrspace-crawler/pkg/config"
)

var tracer = otel.Tracer("addrspace-crawler/application/services")

// crawlerMetrics are the optional Prometheus counters mirroring the
// in-memory readCounter/browseCounter/transactionCounter (spec §6). Created
// once per process; every Crawler instance shares and increments them.
var crawlerMetrics = struct {
	reads        prometheus.Counter
	browses      prometheus.Counter
	transactions prometheus.Counter
}{
	reads: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "addrspace_crawler_reads_total",
		Help: "Total attribute read requests issued to the session.",
	}),
	browses: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "addrspace_crawler_browses_total",
		Help: "Total browse requests issued to the session.",
	}),
	transactions: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "addrspace_crawler_transactions_total",
		Help: "Total queue drain transactions processed across all crawls.",
	}),
}

func init() {
	prometheus.MustRegister(crawlerMetrics.reads, crawlerMetrics.browses, crawlerMetrics.transactions)
}

// Crawler orchestrates one address-space traversal (spec §6): it owns the
// cache store, the two batchers, the single-consumer work queue, and the
// visited/crawled bookkeeping sets, and drains the queue to quiescence.
type Crawler struct {
	session ports.Session
	logger  *zap.Logger

	store         *CacheNodeStore
	readBatcher   *AttributeReadBatcher
	browseBatcher *BrowseBatcher
	queue         *concurrency.WorkQueue
	publisher     *events.Publisher

	visited map[valueobjects.NodeID]bool
	crawled map[valueobjects.NodeID]bool

	transactionCounter int
	startTime          time.Time
	firstErr           error
}

// NewCrawler wires a Crawler around session, resolving operational limits
// immediately (spec §6) and seeding the cache with the well-known reference
// types (spec §4.4).
func NewCrawler(ctx context.Context, session ports.Session, logger *zap.Logger) (*Crawler, error) {
	maxRead, maxBrowse, err := session.OperationalLimits(ctx)
	if err != nil {
		return nil, err
	}
	limits := config.ResolveOperationalLimits(maxRead, maxBrowse)

	store := NewCacheNodeStore()
	PrepopulateReferenceTypes(store)

	c := &Crawler{
		session:       session,
		logger:        logger,
		store:         store,
		readBatcher:   NewAttributeReadBatcher(session, limits.MaxNodesPerRead, logger),
		browseBatcher: NewBrowseBatcher(session, limits.MaxNodesPerBrowse, logger),
		queue:         concurrency.NewWorkQueue(),
		publisher:     events.NewPublisher(),
	}
	c.resetTraversalState()
	return c, nil
}

// On registers a handler for a crawl event ("browsed" or "end", spec §6).
func (c *Crawler) On(eventType string, handler events.Handler) {
	c.publisher.On(eventType, handler)
}

// Store exposes the cache store for the finalizer.
func (c *Crawler) Store() *CacheNodeStore {
	return c.store
}

// ReadCounter reports total attribute reads issued (spec §6).
func (c *Crawler) ReadCounter() int {
	return c.readBatcher.ReadCounter()
}

// BrowseCounter reports total browses issued (spec §6).
func (c *Crawler) BrowseCounter() int {
	return c.browseBatcher.BrowseCounter()
}

// TransactionCounter reports total drain-loop iterations (spec §6).
func (c *Crawler) TransactionCounter() int {
	return c.transactionCounter
}

// StartTime reports when the most recent Crawl began.
func (c *Crawler) StartTime() time.Time {
	return c.startTime
}

// Crawl traverses the address space starting at rootNodeID. userData, if it
// implements OnBrowseHook, drives what happens after each node is browsed;
// callers that want the default recursive traversal pass DefaultUserData{}.
// Crawl blocks until the queue and both batchers have drained, or until the
// first failure stops the drain, then emits "end" and returns that failure,
// if any (spec §6).
func (c *Crawler) Crawl(ctx context.Context, rootNodeID valueobjects.NodeID, userData interface{}) error {
	c.startTime = time.Now()
	ctx, span := tracer.Start(ctx, "crawl")
	defer span.End()

	root := c.store.Get(rootNodeID)
	if root == nil {
		root = c.store.GetOrCreate(rootNodeID)
	}
	c.scheduleCrawl(root, userData)

	c.drain(ctx)

	err := c.firstErr
	c.resetTraversalState()

	c.publisher.Emit(events.NewEnd(rootNodeID, err))
	return err
}

// resetTraversalState clears the visited/crawled sets and the first-error
// latch once the queue has drained (spec §3: these sets are "cleared when
// the queue drains"). Without this, a Crawler reused for a second Crawl call
// would short-circuit immediately: crawlNode's visited check would treat
// every already-cached node as done, and a stale firstErr would make drain
// return before popping anything. The well-known reference-type nodes are
// re-seeded as already crawled, exactly as NewCrawler does for a fresh one.
func (c *Crawler) resetTraversalState() {
	c.firstErr = nil
	c.visited = make(map[valueobjects.NodeID]bool)
	c.crawled = make(map[valueobjects.NodeID]bool)
	for _, id := range WellKnownReferenceTypeIDs() {
		c.crawled[id] = true
		c.visited[id] = true
	}
}

// Read is Crawl plus graph finalization (spec §4.7): it runs the crawl with
// the default traversal and returns the denormalized, cycle-broken object
// tree rooted at rootNodeID.
func (c *Crawler) Read(ctx context.Context, rootNodeID valueobjects.NodeID) (map[string]interface{}, error) {
	if err := c.Crawl(ctx, rootNodeID, DefaultUserData{}); err != nil {
		return nil, err
	}
	return Finalize(c.store, rootNodeID, c.logger)
}

// drain runs the single-consumer loop (spec §5): pop a task, run it, and
// once the queue has drained of everything that can run without a server
// round-trip, flush both batchers (each a no-op when empty). Repeats until
// the queue and both batchers are empty.
func (c *Crawler) drain(ctx context.Context) {
	for {
		if c.firstErr != nil {
			return
		}

		task, ok := c.queue.Pop()
		if !ok {
			if c.browseBatcher.IsEmpty() && c.readBatcher.IsEmpty() {
				return
			}
			c.flushBatchers(ctx)
			continue
		}

		c.transactionCounter++
		crawlerMetrics.transactions.Inc()
		if err := task(); err != nil {
			c.fail(err)
			return
		}

		// Flush once the queue has no more synchronously-derivable work
		// left to run (spec §4.5, §9 "let the scheduler do it, so newly
		// deferred work during continuation execution joins the next
		// batch"): this is what lets every sibling crawl task pushed by one
		// followReference loop — and every attribute read deferred while
		// processing one browse response — land in the same round-trip,
		// rather than forcing a batch of one per task.
		if c.queue.IsEmpty() {
			c.flushBatchers(ctx)
		}
	}
}

func (c *Crawler) flushBatchers(ctx context.Context) {
	_, span := tracer.Start(ctx, "flush")
	defer span.End()

	browsesBefore := c.browseBatcher.BrowseCounter()
	if err := c.browseBatcher.Flush(ctx, c.queue); err != nil {
		c.fail(err)
		return
	}
	crawlerMetrics.browses.Add(float64(c.browseBatcher.BrowseCounter() - browsesBefore))

	readsBefore := c.readBatcher.ReadCounter()
	if err := c.readBatcher.Flush(ctx, c.queue); err != nil {
		c.fail(err)
		return
	}
	crawlerMetrics.reads.Add(float64(c.readBatcher.ReadCounter() - readsBefore))
}

// fail records the first error encountered and stops the drain loop. Per
// spec §7, a transport or protocol failure terminates the crawl but the
// cache built so far is left intact for inspection.
func (c *Crawler) fail(err error) {
	if c.firstErr == nil {
		c.firstErr = err
	}
	c.logger.Error("crawl failed", zap.Error(err))
}

// emitBrowsed publishes the "browsed" event for node (spec §6).
func (c *Crawler) emitBrowsed(node *entities.CacheNode, userData interface{}) {
	c.publisher.Emit(events.NewBrowsed(node, userData))
}
