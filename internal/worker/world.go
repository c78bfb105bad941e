package worker

import "github.com/OCharnyshevich/chunkview/internal/chunk"

// World holds the decoded chunks of one worker. It is owned by the worker's
// goroutine and is not safe for concurrent use.
type World struct {
	chunks map[chunk.Pos]*chunk.Chunk
}

// NewWorld creates an empty World.
func NewWorld() *World {
	return &World{chunks: make(map[chunk.Pos]*chunk.Chunk)}
}

// Chunk returns the chunk at (x, z).
func (w *World) Chunk(x, z int) (*chunk.Chunk, bool) {
	c, ok := w.chunks[chunk.Pos{X: x, Z: z}]
	return c, ok
}

// Put inserts or replaces a chunk.
func (w *World) Put(c *chunk.Chunk) {
	w.chunks[c.Pos()] = c
}

// Remove drops the chunk at (x, z), if present.
func (w *World) Remove(x, z int) {
	delete(w.chunks, chunk.Pos{X: x, Z: z})
}

// Len returns the number of chunks held.
func (w *World) Len() int { return len(w.chunks) }
