package worker

import (
	"sync"

	"github.com/OCharnyshevich/chunkview/internal/chunk"
	"github.com/OCharnyshevich/chunkview/internal/mesh"
)

// SectionMesh is the applied geometry of one section.
type SectionMesh struct {
	BuildNumber uint64
	Opaque      []byte
	Transparent []byte
	Placements  []mesh.Placement
}

// ChunkView is the applied state of one chunk.
type ChunkView struct {
	X, Z     int
	Sections [chunk.SectionsPerColumn]*SectionData
	Palette  []chunk.PaletteEntry
	NextID   uint16
	Meshes   [chunk.SectionsPerColumn]*SectionMesh
}

type sectionKey struct {
	pos     chunk.Pos
	section int
}

// View is the consumer-side state: loaded chunks and the newest applied mesh
// of each section. It is safe for concurrent use.
type View struct {
	mu      sync.RWMutex
	chunks  map[chunk.Pos]*ChunkView
	applied map[sectionKey]uint64
}

// NewView creates an empty View.
func NewView() *View {
	return &View{
		chunks:  make(map[chunk.Pos]*ChunkView),
		applied: make(map[sectionKey]uint64),
	}
}

// ApplyLoaded inserts or replaces a chunk. Meshes already applied for the
// chunk are kept until newer builds replace them.
func (v *View) ApplyLoaded(m *ChunkLoaded) {
	v.mu.Lock()
	defer v.mu.Unlock()

	pos := chunk.Pos{X: m.X, Z: m.Z}
	cv := &ChunkView{X: m.X, Z: m.Z, Sections: m.Sections, Palette: m.Palette, NextID: m.NextID}
	if old, ok := v.chunks[pos]; ok {
		cv.Meshes = old.Meshes
	}
	v.chunks[pos] = cv
}

// ApplyStatus is the outcome of View.ApplyBuilt.
type ApplyStatus uint8

const (
	Applied ApplyStatus = iota
	// Stale means a build with the same or a higher number was applied.
	Stale
	// Unloaded means the chunk is not in the view.
	Unloaded
)

func (s ApplyStatus) String() string {
	switch s {
	case Applied:
		return "applied"
	case Stale:
		return "stale"
	case Unloaded:
		return "unloaded"
	}
	return "unknown"
}

// ApplyBuilt stores a section mesh unless the chunk is not loaded or a build
// with the same or a higher number was already applied.
func (v *View) ApplyBuilt(m *SectionBuilt) ApplyStatus {
	v.mu.Lock()
	defer v.mu.Unlock()

	pos := chunk.Pos{X: m.X, Z: m.Z}
	cv, ok := v.chunks[pos]
	if !ok || m.Section < 0 || m.Section >= chunk.SectionsPerColumn {
		return Unloaded
	}
	key := sectionKey{pos: pos, section: m.Section}
	if m.BuildNumber <= v.applied[key] {
		return Stale
	}
	v.applied[key] = m.BuildNumber
	cv.Meshes[m.Section] = &SectionMesh{
		BuildNumber: m.BuildNumber,
		Opaque:      m.Opaque,
		Transparent: m.Transparent,
		Placements:  m.Placements,
	}
	return Applied
}

// Remove drops a chunk. Applied build numbers are kept so results of builds
// issued before the unload stay stale after a reload.
func (v *View) Remove(x, z int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	pos := chunk.Pos{X: x, Z: z}
	if _, ok := v.chunks[pos]; !ok {
		return false
	}
	delete(v.chunks, pos)
	return true
}

// Loaded reports whether the chunk at (x, z) has been applied.
func (v *View) Loaded(x, z int) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.chunks[chunk.Pos{X: x, Z: z}]
	return ok
}

// Chunk returns a copy of the applied state of a chunk.
func (v *View) Chunk(x, z int) (ChunkView, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	cv, ok := v.chunks[chunk.Pos{X: x, Z: z}]
	if !ok {
		return ChunkView{}, false
	}
	return *cv, true
}

// Mesh returns the applied mesh of a section.
func (v *View) Mesh(x, z, section int) (*SectionMesh, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	cv, ok := v.chunks[chunk.Pos{X: x, Z: z}]
	if !ok || section < 0 || section >= chunk.SectionsPerColumn {
		return nil, false
	}
	m := cv.Meshes[section]
	return m, m != nil
}

// Positions returns the positions of all loaded chunks.
func (v *View) Positions() []chunk.Pos {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]chunk.Pos, 0, len(v.chunks))
	for p := range v.chunks {
		out = append(out, p)
	}
	return out
}

// Len returns the number of loaded chunks.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks)
}
