package worker

import (
	"time"

	"github.com/OCharnyshevich/chunkview/internal/chunk"
	"github.com/OCharnyshevich/chunkview/internal/mesh"
)

// Request is a message sent to a worker.
type Request interface {
	isRequest()
}

// LoadChunk asks a worker to decode a payload into its world. Only the
// worker with Reply set answers with ChunkLoaded or LoadFailed.
type LoadChunk struct {
	X, Z    int
	Payload []byte
	Reply   bool
}

// UnloadChunk drops a chunk from a worker's world. It has no reply.
type UnloadChunk struct {
	X, Z int
}

// BuildSection asks a worker to mesh one section.
type BuildSection struct {
	X, Z        int
	Section     int
	BuildNumber uint64
}

func (LoadChunk) isRequest()    {}
func (UnloadChunk) isRequest()  {}
func (BuildSection) isRequest() {}

// Result is a message posted by a worker.
type Result interface {
	isResult()
}

// SectionData is a packed section: chunk.SectionBufferSize bytes plus the
// non-default field count.
type SectionData struct {
	Count  int
	Buffer []byte
}

// ChunkLoaded reports a decoded chunk.
type ChunkLoaded struct {
	X, Z     int
	Sections [chunk.SectionsPerColumn]*SectionData
	Palette  []chunk.PaletteEntry
	NextID   uint16
}

// LoadFailed reports a payload that could not be decoded.
type LoadFailed struct {
	X, Z int
	Err  error
}

// SectionBuilt carries the geometry of one section. The buffers belong to
// the receiver.
type SectionBuilt struct {
	X, Z        int
	Section     int
	BuildNumber uint64
	Opaque      []byte
	Transparent []byte
	Placements  []mesh.Placement
	Duration    time.Duration
}

// BuildFailed reports a section that could not be meshed.
type BuildFailed struct {
	X, Z        int
	Section     int
	BuildNumber uint64
	Err         error
}

func (*ChunkLoaded) isResult()  {}
func (*LoadFailed) isResult()   {}
func (*SectionBuilt) isResult() {}
func (*BuildFailed) isResult()  {}

// chunkLoaded packs a decoded chunk into its transferable form.
func chunkLoaded(c *chunk.Chunk) *ChunkLoaded {
	msg := &ChunkLoaded{
		X:       c.X,
		Z:       c.Z,
		Palette: c.Palette.Entries(),
		NextID:  c.Palette.NextID(),
	}
	for i, sec := range c.Sections {
		if sec == nil {
			continue
		}
		msg.Sections[i] = &SectionData{Count: sec.NonDefaultCount(), Buffer: sec.Buffer()}
	}
	return msg
}
