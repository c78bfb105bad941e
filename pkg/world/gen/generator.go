package gen

import (
	"fmt"

	"github.com/OCharnyshevich/chunkview/internal/chunk"
)

// Section holds block data for a 16×16×16 vertical slice of a chunk.
// Index = y*256 + z*16 + x, block value = blockID<<4 | metadata.
type Section struct {
	Blocks     [4096]uint16
	BlockLight [4096]uint8
	SkyLight   [4096]uint8
}

// ChunkData holds the generated terrain for one chunk column.
type ChunkData struct {
	Sections [16]*Section // nil = all-air
	Biomes   [256]byte    // index = z*16 + x → biome ID
}

// Generator produces chunk data deterministically from a seed.
type Generator interface {
	Generate(chunkX, chunkZ int) *ChunkData
	HeightAt(blockX, blockZ int) int
}

// New returns the generator registered under kind: "flat" or "hills".
func New(kind string, seed int64) (Generator, error) {
	switch kind {
	case "flat":
		return NewFlatGenerator(seed), nil
	case "hills", "default":
		return NewHillsGenerator(seed), nil
	}
	return nil, fmt.Errorf("unknown generator %q", kind)
}

// SetBlock sets a block state at the given local coordinates within the chunk.
// x, z must be in [0,16), y must be in [0,256).
func (c *ChunkData) SetBlock(x, y, z int, state uint16) {
	sec := y >> 4
	if c.Sections[sec] == nil {
		if state == 0 {
			return
		}
		c.Sections[sec] = newSection()
	}
	c.Sections[sec].Blocks[(y&0xF)*256+z*16+x] = state
}

// GetBlock returns the block state at the given local coordinates.
func (c *ChunkData) GetBlock(x, y, z int) uint16 {
	if y < 0 || y >= 256 {
		return 0
	}
	sec := y >> 4
	if c.Sections[sec] == nil {
		return 0
	}
	return c.Sections[sec].Blocks[(y&0xF)*256+z*16+x]
}

// SetBiome sets the biome ID at the given local x, z coordinates.
func (c *ChunkData) SetBiome(x, z int, biome byte) {
	c.Biomes[z*16+x] = biome
}

func newSection() *Section {
	s := &Section{}
	for i := range s.SkyLight {
		s.SkyLight[i] = 15
	}
	return s
}

// SectionMask has bit i set for every non-nil section.
func (c *ChunkData) SectionMask() uint16 {
	var mask uint16
	for i, sec := range c.Sections {
		if sec != nil {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// Voxel returns the legacy id, data and light of one voxel.
func (c *ChunkData) Voxel(section, idx int) (id uint16, data, blockLight, skyLight uint8) {
	sec := c.Sections[section]
	if sec == nil {
		return 0, 0, 0, 15
	}
	state := sec.Blocks[idx]
	return state >> 4, uint8(state & 0xF), sec.BlockLight[idx], sec.SkyLight[idx]
}

// Payload encodes the chunk as a chunk payload for (chunkX, chunkZ).
func (c *ChunkData) Payload(chunkX, chunkZ int) []byte {
	return chunk.EncodePayload(int32(chunkX), int32(chunkZ), c)
}
