package block

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Key identifies a block state by its legacy type id and data value.
type Key struct {
	ID   uint16
	Data uint8
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.ID, k.Data)
}

// MissingKey is the key reported by the Missing definition. Type id 0xFFFF is
// never assigned by a registry.
var MissingKey = Key{ID: 0xFFFF, Data: 0xFF}

// Shape selects the geometry a definition renders with.
type Shape uint8

const (
	ShapeNone Shape = iota
	ShapeCube
	ShapeCross
	ShapeSlab
	ShapeLiquid
	ShapeSign
)

var shapeNames = map[string]Shape{
	"none":   ShapeNone,
	"cube":   ShapeCube,
	"cross":  ShapeCross,
	"slab":   ShapeSlab,
	"liquid": ShapeLiquid,
	"sign":   ShapeSign,
}

// ParseShape maps a table shape name to a Shape.
func ParseShape(name string) (Shape, error) {
	s, ok := shapeNames[name]
	if !ok {
		return ShapeNone, fmt.Errorf("unknown shape %q", name)
	}
	return s, nil
}

func (s Shape) String() string {
	names := [...]string{"none", "cube", "cross", "slab", "liquid", "sign"}
	if int(s) < len(names) {
		return names[s]
	}
	return fmt.Sprintf("Shape(%d)", uint8(s))
}

// Definition is one resolved block state. Definitions are shared by every
// chunk and worker; apart from the lazily built model they never change after
// the registry is built. Two refs are the same block iff they are the same
// pointer.
type Definition struct {
	Key         Key
	Name        string
	DisplayName string

	shape       Shape
	transparent bool
	rotation    int
	textures    [6]uint16 // indexed by Face

	once    sync.Once
	model   *Model
	counter *atomic.Int64
}

// Air is the default block. Every palette reserves local id 0 for it.
var Air = &Definition{
	Key:         Key{},
	Name:        "air",
	DisplayName: "Air",
	shape:       ShapeNone,
	transparent: true,
}

// Missing stands in for block states the registry cannot resolve. It renders
// as a cube with texture 0.
var Missing = &Definition{
	Key:         MissingKey,
	Name:        "missing",
	DisplayName: "Missing Block",
	shape:       ShapeCube,
}

// Renderable reports whether the block produces any geometry.
func (d *Definition) Renderable() bool { return d.shape != ShapeNone }

// Transparent reports whether the block belongs to the transparent layer.
func (d *Definition) Transparent() bool { return d.transparent }

// Occludes reports whether the block hides the faces of its neighbours.
func (d *Definition) Occludes() bool { return d.shape == ShapeCube && !d.transparent }

func (d *Definition) Shape() Shape { return d.shape }

// Rotation returns the number of 90 degree steps the model is turned about Y.
func (d *Definition) Rotation() int { return d.rotation }

// Texture returns the texture id used on face f.
func (d *Definition) Texture(f Face) uint16 { return d.textures[f] }

// Model returns the geometry of the block. It is built and rotated on first
// use and cached on the definition.
func (d *Definition) Model() *Model {
	d.once.Do(func() {
		m := buildModel(d.shape, d.textures)
		if d.rotation != 0 {
			m = m.RotateY(d.rotation)
		}
		d.model = m
		if d.counter != nil {
			d.counter.Add(1)
		}
	})
	return d.model
}

func (d *Definition) String() string {
	return fmt.Sprintf("%s(%s)", d.Name, d.Key)
}
