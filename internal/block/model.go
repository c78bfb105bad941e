package block

// Face is an axis-aligned direction. North is -Z, West is -X.
type Face uint8

const (
	FaceUp Face = iota
	FaceDown
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast
)

// Faces lists every face in declaration order.
var Faces = [6]Face{FaceUp, FaceDown, FaceNorth, FaceSouth, FaceWest, FaceEast}

func (f Face) String() string {
	switch f {
	case FaceUp:
		return "up"
	case FaceDown:
		return "down"
	case FaceNorth:
		return "north"
	case FaceSouth:
		return "south"
	case FaceWest:
		return "west"
	case FaceEast:
		return "east"
	}
	return "unknown"
}

// Offset returns the unit step towards the neighbour on this face.
func (f Face) Offset() (dx, dy, dz int) {
	switch f {
	case FaceUp:
		return 0, 1, 0
	case FaceDown:
		return 0, -1, 0
	case FaceNorth:
		return 0, 0, -1
	case FaceSouth:
		return 0, 0, 1
	case FaceWest:
		return -1, 0, 0
	case FaceEast:
		return 1, 0, 0
	}
	return 0, 0, 0
}

// rotateY turns a horizontal face one quarter clockwise seen from above.
func (f Face) rotateY() Face {
	switch f {
	case FaceNorth:
		return FaceEast
	case FaceEast:
		return FaceSouth
	case FaceSouth:
		return FaceWest
	case FaceWest:
		return FaceNorth
	}
	return f
}

// Quad is one textured rectangle of a block model. Min and Max bound the box
// the quad belongs to, in 1/16 block units; the quad is the side of that box
// facing Face. UV holds u0, v0, u1, v1 in 1/16 texture units.
type Quad struct {
	Face    Face
	Min     [3]int8
	Max     [3]int8
	Texture uint16
	UV      [4]uint8
	// Cull marks quads on the block boundary, which are hidden by an
	// occluding neighbour.
	Cull bool
}

// Model is the geometry of one block state.
type Model struct {
	Quads []Quad
}

// RotateY returns a copy of m turned by steps quarter turns about the block's
// vertical centre line.
func (m *Model) RotateY(steps int) *Model {
	steps = ((steps % 4) + 4) % 4
	out := &Model{Quads: make([]Quad, len(m.Quads))}
	copy(out.Quads, m.Quads)
	for n := 0; n < steps; n++ {
		for i := range out.Quads {
			out.Quads[i] = rotateQuad(out.Quads[i])
		}
	}
	return out
}

func rotateQuad(q Quad) Quad {
	// (x, z) -> (16-z, x)
	ax, az := 16-q.Min[2], q.Min[0]
	bx, bz := 16-q.Max[2], q.Max[0]
	q.Min[0], q.Max[0] = min(ax, bx), max(ax, bx)
	q.Min[2], q.Max[2] = min(az, bz), max(az, bz)
	q.Face = q.Face.rotateY()
	return q
}

type box struct {
	min, max [3]int8
}

func (b box) quad(f Face, texture uint16) Quad {
	q := Quad{Face: f, Min: b.min, Max: b.max, Texture: texture}
	switch f {
	case FaceUp, FaceDown:
		q.UV = [4]uint8{uint8(b.min[0]), uint8(b.min[2]), uint8(b.max[0]), uint8(b.max[2])}
	case FaceNorth, FaceSouth:
		q.UV = [4]uint8{uint8(b.min[0]), uint8(16 - b.max[1]), uint8(b.max[0]), uint8(16 - b.min[1])}
	default:
		q.UV = [4]uint8{uint8(b.min[2]), uint8(16 - b.max[1]), uint8(b.max[2]), uint8(16 - b.min[1])}
	}
	q.Cull = b.onBoundary(f)
	return q
}

func (b box) onBoundary(f Face) bool {
	switch f {
	case FaceUp:
		return b.max[1] == 16
	case FaceDown:
		return b.min[1] == 0
	case FaceNorth:
		return b.min[2] == 0
	case FaceSouth:
		return b.max[2] == 16
	case FaceWest:
		return b.min[0] == 0
	case FaceEast:
		return b.max[0] == 16
	}
	return false
}

func (b box) quads(textures [6]uint16, faces ...Face) []Quad {
	if len(faces) == 0 {
		faces = Faces[:]
	}
	out := make([]Quad, 0, len(faces))
	for _, f := range faces {
		out = append(out, b.quad(f, textures[f]))
	}
	return out
}

var (
	fullBox   = box{min: [3]int8{0, 0, 0}, max: [3]int8{16, 16, 16}}
	slabBox   = box{min: [3]int8{0, 0, 0}, max: [3]int8{16, 8, 16}}
	liquidBox = box{min: [3]int8{0, 0, 0}, max: [3]int8{16, 14, 16}}
	signBox   = box{min: [3]int8{0, 4, 0}, max: [3]int8{16, 12, 1}}

	crossX = box{min: [3]int8{8, 0, 0}, max: [3]int8{8, 16, 16}}
	crossZ = box{min: [3]int8{0, 0, 8}, max: [3]int8{16, 16, 8}}
)

func buildModel(shape Shape, textures [6]uint16) *Model {
	switch shape {
	case ShapeCube:
		return &Model{Quads: fullBox.quads(textures)}
	case ShapeSlab:
		return &Model{Quads: slabBox.quads(textures)}
	case ShapeLiquid:
		return &Model{Quads: liquidBox.quads(textures)}
	case ShapeSign:
		return &Model{Quads: signBox.quads(textures)}
	case ShapeCross:
		// Both sides of each plane, never culled.
		side := textures[FaceNorth]
		quads := make([]Quad, 0, 4)
		for _, q := range crossX.quads(textures, FaceWest, FaceEast) {
			q.Texture, q.Cull = side, false
			quads = append(quads, q)
		}
		for _, q := range crossZ.quads(textures, FaceNorth, FaceSouth) {
			q.Texture, q.Cull = side, false
			quads = append(quads, q)
		}
		return &Model{Quads: quads}
	}
	return &Model{}
}
