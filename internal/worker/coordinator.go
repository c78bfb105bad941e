package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/chunkview/internal/chunk"
	"github.com/OCharnyshevich/chunkview/internal/mesh"
)

// Options configures a Coordinator.
type Options struct {
	Workers   int
	QueueSize int // per-worker inbox capacity
	Metrics   *Metrics
}

// EventKind identifies what an Event reports.
type EventKind uint8

const (
	EventChunkLoaded EventKind = iota + 1
	EventSectionBuilt
	EventChunkUnloaded
)

// Event is published to subscribers after the view changes.
type Event struct {
	Kind    EventKind
	X, Z    int
	Section int
	Loaded  *ChunkLoaded
	Mesh    *SectionMesh
}

var neighborOffsets = [4][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// Coordinator owns a pool of workers. Chunk loads are broadcast to every
// worker so each can answer neighbour lookups; builds are spread round-robin.
// Results are applied to a View, discarding stale builds.
type Coordinator struct {
	log     *slog.Logger
	metrics *Metrics
	workers []*Worker
	results chan Result
	pending *queue
	view    *View

	mu       sync.Mutex
	wanted   map[chunk.Pos]bool
	buildSeq map[sectionKey]uint64

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewCoordinator creates a Coordinator and its workers. Nothing runs until
// Run is called; requests made before that are queued.
func NewCoordinator(resolver chunk.Resolver, opts Options, log *slog.Logger) *Coordinator {
	n := max(opts.Workers, 1)
	qs := max(opts.QueueSize, 1)

	c := &Coordinator{
		log:      log,
		metrics:  opts.Metrics,
		results:  make(chan Result, n*qs),
		pending:  newQueue(),
		view:     NewView(),
		wanted:   make(map[chunk.Pos]bool),
		buildSeq: make(map[sectionKey]uint64),
		subs:     make(map[int]chan Event),
	}
	for i := 0; i < n; i++ {
		c.workers = append(c.workers, New(i, resolver, c.results, qs, log))
	}
	return c
}

// View returns the applied state.
func (c *Coordinator) View() *View { return c.view }

// Run starts the workers and processes results until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	c.log.Info("coordinator started", "workers", len(c.workers))

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range c.workers {
		g.Go(func() error { return w.Run(ctx) })
	}
	g.Go(func() error { return c.dispatch(ctx) })
	g.Go(func() error { return c.collect(ctx) })

	err := g.Wait()
	c.log.Info("coordinator stopped")
	return err
}

// LoadChunk queues a payload for decoding at (x, z). The chunk becomes
// visible in the view once a worker has decoded it.
func (c *Coordinator) LoadChunk(x, z int, payload []byte) {
	c.mu.Lock()
	c.wanted[chunk.Pos{X: x, Z: z}] = true
	c.mu.Unlock()
	c.pending.push(LoadChunk{X: x, Z: z, Payload: payload})
}

// UnloadChunk removes a chunk from the view and from every worker.
func (c *Coordinator) UnloadChunk(x, z int) {
	c.mu.Lock()
	delete(c.wanted, chunk.Pos{X: x, Z: z})
	removed := c.view.Remove(x, z)
	c.mu.Unlock()

	c.pending.push(UnloadChunk{X: x, Z: z})
	if removed {
		c.publish(Event{Kind: EventChunkUnloaded, X: x, Z: z})
	}
}

// RequestBuild queues a build of one section and returns its build number.
// The chunk and its four horizontal neighbours must be loaded.
func (c *Coordinator) RequestBuild(x, z, section int) (uint64, error) {
	if section < 0 || section >= chunk.SectionsPerColumn {
		return 0, fmt.Errorf("request build %d,%d: section %d out of range", x, z, section)
	}
	if !c.view.Loaded(x, z) {
		return 0, fmt.Errorf("request build %d,%d: %w", x, z, ErrChunkNotLoaded)
	}
	for _, o := range neighborOffsets {
		if !c.view.Loaded(x+o[0], z+o[1]) {
			return 0, fmt.Errorf("request build %d,%d: %w: %d,%d",
				x, z, mesh.ErrNeighborMissing, x+o[0], z+o[1])
		}
	}
	return c.enqueueBuild(x, z, section), nil
}

func (c *Coordinator) enqueueBuild(x, z, section int) uint64 {
	key := sectionKey{pos: chunk.Pos{X: x, Z: z}, section: section}
	c.mu.Lock()
	c.buildSeq[key]++
	n := c.buildSeq[key]
	c.mu.Unlock()

	c.pending.push(BuildSection{X: x, Z: z, Section: section, BuildNumber: n})
	return n
}

// Subscribe returns a channel of view events. A subscriber that lets the
// buffer fill is dropped: its channel is closed and it must read the View
// again before resubscribing. The returned func cancels the subscription.
func (c *Coordinator) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Coordinator) publish(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			delete(c.subs, id)
			close(ch)
			c.metrics.subscriberDropped()
			c.log.Warn("subscriber lagging, subscription closed", "subscriber", id, "buffer", cap(ch))
		}
	}
}

// dispatch feeds queued requests to the workers in order. A load reaches
// every inbox before anything queued after it, so a build dispatched after a
// load always finds the chunk.
func (c *Coordinator) dispatch(ctx context.Context) error {
	var next, loads int
	for {
		req, ok := c.pending.pop(ctx)
		if !ok {
			return nil
		}
		var err error
		switch r := req.(type) {
		case LoadChunk:
			reply := loads % len(c.workers)
			loads++
			for i, w := range c.workers {
				r.Reply = i == reply
				if err = w.Send(ctx, r); err != nil {
					break
				}
			}
		case UnloadChunk:
			for _, w := range c.workers {
				if err = w.Send(ctx, r); err != nil {
					break
				}
			}
		default:
			err = c.workers[next].Send(ctx, req)
			next = (next + 1) % len(c.workers)
		}
		if err != nil {
			return nil
		}
	}
}

func (c *Coordinator) collect(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-c.results:
			c.handle(res)
		}
	}
}

func (c *Coordinator) handle(res Result) {
	switch m := res.(type) {
	case *ChunkLoaded:
		c.mu.Lock()
		if !c.wanted[chunk.Pos{X: m.X, Z: m.Z}] {
			c.mu.Unlock()
			c.log.Debug("chunk unloaded before decode finished", "x", m.X, "z", m.Z)
			return
		}
		c.view.ApplyLoaded(m)
		c.mu.Unlock()

		c.metrics.chunkLoaded()
		c.log.Debug("chunk loaded", "x", m.X, "z", m.Z, "palette", len(m.Palette))
		c.publish(Event{Kind: EventChunkLoaded, X: m.X, Z: m.Z, Loaded: m})
		c.scheduleAround(m.X, m.Z)

	case *LoadFailed:
		c.mu.Lock()
		delete(c.wanted, chunk.Pos{X: m.X, Z: m.Z})
		c.mu.Unlock()
		c.metrics.loadFailed()
		c.log.Warn("chunk load failed", "x", m.X, "z", m.Z, "error", m.Err)

	case *SectionBuilt:
		switch status := c.view.ApplyBuilt(m); status {
		case Applied:
			c.metrics.sectionBuilt(m.Duration, len(m.Opaque), len(m.Transparent))
			sm, _ := c.view.Mesh(m.X, m.Z, m.Section)
			c.publish(Event{Kind: EventSectionBuilt, X: m.X, Z: m.Z, Section: m.Section, Mesh: sm})
		case Stale:
			c.metrics.stale()
			c.log.Debug("stale build discarded", "x", m.X, "z", m.Z, "section", m.Section, "build", m.BuildNumber)
		default:
			c.log.Debug("build for unloaded chunk discarded", "x", m.X, "z", m.Z, "section", m.Section)
		}

	case *BuildFailed:
		c.metrics.buildFailed()
		if errors.Is(m.Err, ErrChunkNotLoaded) || errors.Is(m.Err, mesh.ErrNeighborMissing) {
			c.log.Debug("build skipped", "x", m.X, "z", m.Z, "section", m.Section, "error", m.Err)
			return
		}
		c.log.Warn("build failed", "x", m.X, "z", m.Z, "section", m.Section, "error", m.Err)
	}
}

// scheduleAround builds the present sections of (x, z) and of its loaded
// neighbours, whose border faces depend on it.
func (c *Coordinator) scheduleAround(x, z int) {
	c.scheduleChunk(x, z)
	for _, o := range neighborOffsets {
		c.scheduleChunk(x+o[0], z+o[1])
	}
}

func (c *Coordinator) scheduleChunk(x, z int) {
	cv, ok := c.view.Chunk(x, z)
	if !ok {
		return
	}
	for _, o := range neighborOffsets {
		if !c.view.Loaded(x+o[0], z+o[1]) {
			return
		}
	}
	for s, sec := range cv.Sections {
		if sec != nil {
			c.enqueueBuild(x, z, s)
		}
	}
}

// queue is an unbounded FIFO, so producers never wait on busy workers.
type queue struct {
	mu    sync.Mutex
	items []Request
	ready chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

func (q *queue) push(r Request) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *queue) pop(ctx context.Context) (Request, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			r := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return r, true
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, false
		}
	}
}
