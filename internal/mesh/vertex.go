package mesh

import (
	"encoding/binary"
	"fmt"

	"github.com/OCharnyshevich/chunkview/internal/block"
)

// VertexSize is the size of one packed vertex.
const VertexSize = 16

// PlacementSize is the size of one packed placement.
const PlacementSize = 11

// Vertex is the unpacked form of a vertex record. Positions are chunk-local
// in 1/16 block units; U and V are in 1/16 texture units.
type Vertex struct {
	X, Y, Z    int16
	Texture    uint16
	U, V       uint16
	BlockLight uint8
	SkyLight   uint8
	Face       block.Face
}

// Put writes v into buf[:VertexSize], little endian.
func (v Vertex) Put(buf []byte) {
	_ = buf[VertexSize-1]
	binary.LittleEndian.PutUint16(buf[0:], uint16(v.X))
	binary.LittleEndian.PutUint16(buf[2:], uint16(v.Y))
	binary.LittleEndian.PutUint16(buf[4:], uint16(v.Z))
	binary.LittleEndian.PutUint16(buf[6:], v.Texture)
	binary.LittleEndian.PutUint16(buf[8:], v.U)
	binary.LittleEndian.PutUint16(buf[10:], v.V)
	buf[12] = v.BlockLight
	buf[13] = v.SkyLight
	buf[14] = uint8(v.Face)
	buf[15] = 0
}

// DecodeVertex reads the vertex record at buf[:VertexSize].
func DecodeVertex(buf []byte) Vertex {
	_ = buf[VertexSize-1]
	return Vertex{
		X:          int16(binary.LittleEndian.Uint16(buf[0:])),
		Y:          int16(binary.LittleEndian.Uint16(buf[2:])),
		Z:          int16(binary.LittleEndian.Uint16(buf[4:])),
		Texture:    binary.LittleEndian.Uint16(buf[6:]),
		U:          binary.LittleEndian.Uint16(buf[8:]),
		V:          binary.LittleEndian.Uint16(buf[10:]),
		BlockLight: buf[12],
		SkyLight:   buf[13],
		Face:       block.Face(buf[14]),
	}
}

// DecodeVertices unpacks a whole geometry buffer.
func DecodeVertices(buf []byte) ([]Vertex, error) {
	if len(buf)%VertexSize != 0 {
		return nil, fmt.Errorf("decode vertices: %d bytes is not a multiple of %d", len(buf), VertexSize)
	}
	out := make([]Vertex, 0, len(buf)/VertexSize)
	for off := 0; off < len(buf); off += VertexSize {
		out = append(out, DecodeVertex(buf[off:]))
	}
	return out, nil
}

// Placement locates the transparent geometry of one block in the
// transparent buffer. Y is chunk-local (section*16 + y).
type Placement struct {
	X, Y, Z uint8
	Offset  uint32
	Length  uint32
}

// EncodePlacements packs placements as x, y, z bytes followed by offset and
// length as little-endian uint32.
func EncodePlacements(ps []Placement) []byte {
	buf := make([]byte, len(ps)*PlacementSize)
	for i, p := range ps {
		b := buf[i*PlacementSize:]
		b[0], b[1], b[2] = p.X, p.Y, p.Z
		binary.LittleEndian.PutUint32(b[3:], p.Offset)
		binary.LittleEndian.PutUint32(b[7:], p.Length)
	}
	return buf
}

// DecodePlacements unpacks EncodePlacements output.
func DecodePlacements(buf []byte) ([]Placement, error) {
	if len(buf)%PlacementSize != 0 {
		return nil, fmt.Errorf("decode placements: %d bytes is not a multiple of %d", len(buf), PlacementSize)
	}
	out := make([]Placement, 0, len(buf)/PlacementSize)
	for off := 0; off < len(buf); off += PlacementSize {
		b := buf[off:]
		out = append(out, Placement{
			X:      b[0],
			Y:      b[1],
			Z:      b[2],
			Offset: binary.LittleEndian.Uint32(b[3:]),
			Length: binary.LittleEndian.Uint32(b[7:]),
		})
	}
	return out, nil
}
