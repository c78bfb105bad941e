package chunk

import "github.com/OCharnyshevich/chunkview/internal/block"

// Pos identifies a chunk column by its X and Z coordinates.
type Pos struct{ X, Z int }

// Chunk is a decoded 16×256×16 column.
type Chunk struct {
	X, Z     int
	Sections [SectionsPerColumn]*Section // nil = all default
	Palette  *Palette
}

// New returns an empty chunk with an air-only palette.
func New(x, z int) *Chunk {
	return &Chunk{X: x, Z: z, Palette: NewPalette()}
}

func (c *Chunk) Pos() Pos { return Pos{X: c.X, Z: c.Z} }

// Block returns the definition at local coordinates. x and z must be in
// [0,16); y outside [0,256) is air.
func (c *Chunk) Block(x, y, z int) *block.Definition {
	if y < 0 || y >= 256 {
		return block.Air
	}
	sec := c.Sections[y>>4]
	if sec == nil {
		return block.Air
	}
	return c.Palette.Definition(sec.Blocks[Index(x, y&0xF, z)])
}

// Light returns the block and sky light at local coordinates, with the same
// defaults as Block.
func (c *Chunk) Light(x, y, z int) (blockLight, skyLight uint8) {
	if y < 0 || y >= 256 {
		return 0, DefaultSkyLight
	}
	sec := c.Sections[y>>4]
	if sec == nil {
		return 0, DefaultSkyLight
	}
	i := Index(x, y&0xF, z)
	return sec.BlockLight.Get(i), sec.SkyLight.Get(i)
}

// SectionMask has bit i set when section i is present.
func (c *Chunk) SectionMask() uint16 {
	var mask uint16
	for i, sec := range c.Sections {
		if sec != nil {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// Voxel returns the block key and light of one voxel, so a chunk can be
// encoded back into a payload.
func (c *Chunk) Voxel(section, idx int) (id uint16, data, blockLight, skyLight uint8) {
	sec := c.Sections[section]
	if sec == nil {
		return 0, 0, 0, DefaultSkyLight
	}
	local, bl, sl := sec.Voxel(idx)
	k := c.Palette.Definition(local).Key
	return k.ID, k.Data, bl, sl
}
