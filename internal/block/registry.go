package block

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/OCharnyshevich/chunkview/pkg/gamedata"
)

// MissingTexture is the texture id 0, used by the Missing block and any face
// without a texture name.
const MissingTexture = "missing"

// Registry resolves (type id, data) pairs to shared block definitions. It is
// read-only after NewRegistry and safe for concurrent use.
type Registry struct {
	version    string
	defs       map[Key]*Definition
	textures   []string
	textureIDs map[string]uint16

	modelsBuilt atomic.Int64
}

// NewRegistry builds the definitions of every block state in gd.
func NewRegistry(gd *gamedata.GameData) (*Registry, error) {
	if gd == nil || gd.Blocks == nil {
		return nil, fmt.Errorf("new registry: no block data")
	}
	r := &Registry{
		version:    gd.Version,
		defs:       make(map[Key]*Definition),
		textures:   []string{MissingTexture},
		textureIDs: map[string]uint16{MissingTexture: 0},
	}
	r.defs[Air.Key] = Air

	for _, b := range gd.Blocks.All() {
		if b.ID < 0 || b.ID >= int(MissingKey.ID) {
			return nil, fmt.Errorf("block %s: id %d out of range", b.Name, b.ID)
		}
		if b.ID == 0 {
			continue
		}
		for _, v := range b.States() {
			def, err := r.newDefinition(b, v)
			if err != nil {
				return nil, fmt.Errorf("block %s: %w", b.Name, err)
			}
			if _, dup := r.defs[def.Key]; dup {
				return nil, fmt.Errorf("block %s: duplicate state %s", b.Name, def.Key)
			}
			r.defs[def.Key] = def
		}
	}
	return r, nil
}

func (r *Registry) newDefinition(b gamedata.Block, v gamedata.Variation) (*Definition, error) {
	if v.Metadata < 0 || v.Metadata > 255 {
		return nil, fmt.Errorf("metadata %d out of range", v.Metadata)
	}
	if v.Rotation < 0 || v.Rotation > 3 {
		return nil, fmt.Errorf("metadata %d: rotation %d out of range", v.Metadata, v.Rotation)
	}

	shapeName := v.Shape
	if shapeName == "" {
		shapeName = b.Shape
	}
	shape := defaultShape(b)
	if shapeName != "" {
		s, err := ParseShape(shapeName)
		if err != nil {
			return nil, fmt.Errorf("metadata %d: %w", v.Metadata, err)
		}
		shape = s
	}

	names := b.Textures
	if len(v.Textures) > 0 {
		names = v.Textures
	}

	def := &Definition{
		Key:         Key{ID: uint16(b.ID), Data: uint8(v.Metadata)},
		Name:        b.Name,
		DisplayName: v.DisplayName,
		shape:       shape,
		transparent: b.Transparent,
		rotation:    v.Rotation,
		counter:     &r.modelsBuilt,
	}
	if def.DisplayName == "" {
		def.DisplayName = b.DisplayName
	}
	for _, f := range Faces {
		def.textures[f] = r.intern(textureName(names, f, b.Name))
	}
	return def, nil
}

// defaultShape guesses the shape of blocks from tables without render
// fields, such as minecraft-data blocks.json.
func defaultShape(b gamedata.Block) Shape {
	switch {
	case b.ID == 0 || b.Name == "air":
		return ShapeNone
	case strings.Contains(b.Name, "water"), strings.Contains(b.Name, "lava"):
		return ShapeLiquid
	case strings.HasSuffix(b.Name, "sign"):
		return ShapeSign
	case b.BoundingBox == "empty":
		return ShapeCross
	}
	return ShapeCube
}

// textureName picks the most specific texture for a face: the face itself,
// then top/bottom/side, then all, then the block name.
func textureName(names map[string]string, f Face, fallback string) string {
	if n, ok := names[f.String()]; ok {
		return n
	}
	group := "side"
	switch f {
	case FaceUp:
		group = "top"
	case FaceDown:
		group = "bottom"
	}
	if n, ok := names[group]; ok {
		return n
	}
	if n, ok := names["all"]; ok {
		return n
	}
	return fallback
}

func (r *Registry) intern(name string) uint16 {
	if id, ok := r.textureIDs[name]; ok {
		return id
	}
	id := uint16(len(r.textures))
	r.textures = append(r.textures, name)
	r.textureIDs[name] = id
	return id
}

// Resolve returns the definition of a block state. Type id 0 is always air.
func (r *Registry) Resolve(id uint16, data uint8) (*Definition, bool) {
	if id == 0 {
		return Air, true
	}
	def, ok := r.defs[Key{ID: id, Data: data}]
	return def, ok
}

// ByKey resolves k, returning Missing for unknown states.
func (r *Registry) ByKey(k Key) *Definition {
	if def, ok := r.Resolve(k.ID, k.Data); ok {
		return def
	}
	return Missing
}

// TextureID returns the interned id of a texture name.
func (r *Registry) TextureID(name string) (uint16, bool) {
	id, ok := r.textureIDs[name]
	return id, ok
}

// Textures returns every texture name indexed by its id.
func (r *Registry) Textures() []string {
	out := make([]string, len(r.textures))
	copy(out, r.textures)
	return out
}

// ModelsBuilt reports how many definitions have materialised their model.
func (r *Registry) ModelsBuilt() int64 { return r.modelsBuilt.Load() }

// Len returns the number of block states, air included.
func (r *Registry) Len() int { return len(r.defs) }

func (r *Registry) Version() string { return r.version }
