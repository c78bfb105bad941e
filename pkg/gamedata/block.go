package gamedata

// Block describes one block type of a game version. The field names follow the
// minecraft-data blocks.json layout so the same struct reads both that file and
// the embedded YAML tables; Shape, Textures and Rotation are render extensions.
type Block struct {
	ID          int               `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	DisplayName string            `json:"displayName" yaml:"displayName"`
	BoundingBox string            `json:"boundingBox" yaml:"boundingBox"`
	Material    string            `json:"material,omitempty" yaml:"material,omitempty"`
	Transparent bool              `json:"transparent" yaml:"transparent"`
	EmitLight   int               `json:"emitLight" yaml:"emitLight"`
	FilterLight int               `json:"filterLight" yaml:"filterLight"`
	Shape       string            `json:"shape,omitempty" yaml:"shape,omitempty"`
	Textures    map[string]string `json:"textures,omitempty" yaml:"textures,omitempty"`
	Variations  []Variation       `json:"variations,omitempty" yaml:"variations,omitempty"`
}

// Variation is one legacy metadata value of a block.
type Variation struct {
	Metadata    int               `json:"metadata" yaml:"metadata"`
	DisplayName string            `json:"displayName" yaml:"displayName"`
	Shape       string            `json:"shape,omitempty" yaml:"shape,omitempty"`
	Textures    map[string]string `json:"textures,omitempty" yaml:"textures,omitempty"`
	Rotation    int               `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// States returns the variations of b, or a single metadata-0 state when the
// block has none.
func (b Block) States() []Variation {
	if len(b.Variations) > 0 {
		return b.Variations
	}
	return []Variation{{Metadata: 0, DisplayName: b.DisplayName}}
}
