package mesh

import (
	"errors"
	"fmt"

	"github.com/OCharnyshevich/chunkview/internal/block"
	"github.com/OCharnyshevich/chunkview/internal/chunk"
)

// ErrNeighborMissing is returned when a horizontal neighbour of the chunk
// being meshed is not available.
var ErrNeighborMissing = errors.New("neighbor chunk missing")

// ChunkSource looks up decoded chunks by position.
type ChunkSource interface {
	Chunk(x, z int) (*chunk.Chunk, bool)
}

// Result holds the geometry of one section.
type Result struct {
	Opaque      []byte
	Transparent []byte
	Placements  []Placement
}

// Vertices returns the number of vertices in both buffers.
func (r *Result) Vertices() int {
	return (len(r.Opaque) + len(r.Transparent)) / VertexSize
}

// Build meshes one section of c. All four horizontal neighbours of c must be
// available from src; the chunks are only read.
func Build(src ChunkSource, c *chunk.Chunk, section int) (*Result, error) {
	if section < 0 || section >= chunk.SectionsPerColumn {
		return nil, fmt.Errorf("build %d,%d: section %d out of range", c.X, c.Z, section)
	}
	b := &builder{c: c, section: section}
	for _, n := range []struct {
		dst    **chunk.Chunk
		dx, dz int
	}{
		{&b.north, 0, -1},
		{&b.south, 0, 1},
		{&b.west, -1, 0},
		{&b.east, 1, 0},
	} {
		nc, ok := src.Chunk(c.X+n.dx, c.Z+n.dz)
		if !ok || nc == nil {
			return nil, fmt.Errorf("build %d,%d section %d: %w: %d,%d",
				c.X, c.Z, section, ErrNeighborMissing, c.X+n.dx, c.Z+n.dz)
		}
		*n.dst = nc
	}

	res := &Result{}
	if c.Sections[section] == nil {
		return res, nil
	}
	b.res = res
	b.run()
	return res, nil
}

type builder struct {
	c                        *chunk.Chunk
	north, south, west, east *chunk.Chunk
	section                  int
	res                      *Result
	vbuf                     [VertexSize]byte
}

// at resolves a cell relative to the current chunk. lx and lz may step one
// cell outside [0,16); y is chunk-local.
func (b *builder) at(lx, y, lz int) (*chunk.Chunk, int, int) {
	switch {
	case lx < 0:
		return b.west, lx + 16, lz
	case lx > 15:
		return b.east, lx - 16, lz
	case lz < 0:
		return b.north, lx, lz + 16
	case lz > 15:
		return b.south, lx, lz - 16
	}
	return b.c, lx, lz
}

func (b *builder) run() {
	sec := b.c.Sections[b.section]
	baseY := b.section * 16
	for y := 0; y < 16; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				def := b.c.Palette.Definition(sec.Blocks[chunk.Index(x, y, z)])
				if !def.Renderable() {
					continue
				}
				if def.Transparent() {
					start := len(b.res.Transparent)
					b.res.Transparent = b.emit(b.res.Transparent, def, x, baseY+y, z)
					if n := len(b.res.Transparent) - start; n > 0 {
						b.res.Placements = append(b.res.Placements, Placement{
							X:      uint8(x),
							Y:      uint8(baseY + y),
							Z:      uint8(z),
							Offset: uint32(start),
							Length: uint32(n),
						})
					}
				} else {
					b.res.Opaque = b.emit(b.res.Opaque, def, x, baseY+y, z)
				}
			}
		}
	}
}

// emit appends the visible quads of def at chunk-local (x, y, z) to dst.
func (b *builder) emit(dst []byte, def *block.Definition, x, y, z int) []byte {
	ownBL, ownSL := b.c.Light(x, y, z)
	for _, q := range def.Model().Quads {
		bl, sl := ownBL, ownSL
		if q.Cull {
			dx, dy, dz := q.Face.Offset()
			nc, nx, nz := b.at(x+dx, y+dy, z+dz)
			nd := nc.Block(nx, y+dy, nz)
			if nd.Occludes() || (def.Transparent() && nd == def) {
				continue
			}
			bl, sl = nc.Light(nx, y+dy, nz)
		}
		dst = b.quad(dst, q, x, y, z, bl, sl)
	}
	return dst
}

// quad appends q as two triangles.
func (b *builder) quad(dst []byte, q block.Quad, x, y, z int, bl, sl uint8) []byte {
	corners := quadCorners(q)
	uv := [4][2]uint8{
		{q.UV[0], q.UV[3]},
		{q.UV[2], q.UV[3]},
		{q.UV[2], q.UV[1]},
		{q.UV[0], q.UV[1]},
	}
	for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
		c := corners[i]
		v := Vertex{
			X:          int16(x*16 + int(c[0])),
			Y:          int16(y*16 + int(c[1])),
			Z:          int16(z*16 + int(c[2])),
			Texture:    q.Texture,
			U:          uint16(uv[i][0]),
			V:          uint16(uv[i][1]),
			BlockLight: bl,
			SkyLight:   sl,
			Face:       q.Face,
		}
		v.Put(b.vbuf[:])
		dst = append(dst, b.vbuf[:]...)
	}
	return dst
}

// quadCorners returns the corners of q counter-clockwise seen from the side
// the face points to.
func quadCorners(q block.Quad) [4][3]int8 {
	x0, y0, z0 := q.Min[0], q.Min[1], q.Min[2]
	x1, y1, z1 := q.Max[0], q.Max[1], q.Max[2]
	switch q.Face {
	case block.FaceUp:
		return [4][3]int8{{x0, y1, z1}, {x1, y1, z1}, {x1, y1, z0}, {x0, y1, z0}}
	case block.FaceDown:
		return [4][3]int8{{x0, y0, z0}, {x1, y0, z0}, {x1, y0, z1}, {x0, y0, z1}}
	case block.FaceNorth:
		return [4][3]int8{{x1, y0, z0}, {x0, y0, z0}, {x0, y1, z0}, {x1, y1, z0}}
	case block.FaceSouth:
		return [4][3]int8{{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1}}
	case block.FaceWest:
		return [4][3]int8{{x0, y0, z0}, {x0, y0, z1}, {x0, y1, z1}, {x0, y1, z0}}
	default:
		return [4][3]int8{{x1, y0, z1}, {x1, y0, z0}, {x1, y1, z0}, {x1, y1, z1}}
	}
}
