package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCharnyshevich/chunkview/internal/chunk"
	"github.com/OCharnyshevich/chunkview/internal/mesh"
)

// ErrChunkNotLoaded is returned for requests on a chunk that has not been
// loaded.
var ErrChunkNotLoaded = errors.New("chunk not loaded")

// Worker decodes and meshes chunks on a single goroutine. Requests are
// handled strictly in arrival order.
type Worker struct {
	id       int
	resolver chunk.Resolver
	world    *World
	inbox    chan Request
	out      chan<- Result
	log      *slog.Logger
}

// New creates a Worker posting results to out.
func New(id int, resolver chunk.Resolver, out chan<- Result, queueSize int, log *slog.Logger) *Worker {
	return &Worker{
		id:       id,
		resolver: resolver,
		world:    NewWorld(),
		inbox:    make(chan Request, queueSize),
		out:      out,
		log:      log.With("worker", id),
	}
}

// Send queues a request, blocking while the inbox is full.
func (w *Worker) Send(ctx context.Context, req Request) error {
	select {
	case w.inbox <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes requests until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Debug("worker started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-w.inbox:
			res := w.Handle(req)
			if res == nil {
				continue
			}
			select {
			case w.out <- res:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Handle processes one request and returns the result to post, if any.
func (w *Worker) Handle(req Request) Result {
	switch r := req.(type) {
	case LoadChunk:
		return w.load(r)
	case UnloadChunk:
		w.world.Remove(r.X, r.Z)
		return nil
	case BuildSection:
		return w.build(r)
	default:
		w.log.Warn("unknown request", "type", fmt.Sprintf("%T", req))
		return nil
	}
}

func (w *Worker) load(r LoadChunk) Result {
	c, err := chunk.Decode(r.Payload, r.X, r.Z, w.resolver)
	if err != nil {
		if !r.Reply {
			return nil
		}
		return &LoadFailed{X: r.X, Z: r.Z, Err: err}
	}
	w.world.Put(c)
	if !r.Reply {
		return nil
	}
	return chunkLoaded(c)
}

func (w *Worker) build(r BuildSection) Result {
	failed := func(err error) Result {
		return &BuildFailed{X: r.X, Z: r.Z, Section: r.Section, BuildNumber: r.BuildNumber, Err: err}
	}

	c, ok := w.world.Chunk(r.X, r.Z)
	if !ok {
		return failed(fmt.Errorf("build %d,%d section %d: %w", r.X, r.Z, r.Section, ErrChunkNotLoaded))
	}
	start := time.Now()
	res, err := mesh.Build(w.world, c, r.Section)
	if err != nil {
		return failed(err)
	}
	return &SectionBuilt{
		X:           r.X,
		Z:           r.Z,
		Section:     r.Section,
		BuildNumber: r.BuildNumber,
		Opaque:      res.Opaque,
		Transparent: res.Transparent,
		Placements:  res.Placements,
		Duration:    time.Since(start),
	}
}
