package chunk

import (
	"encoding/binary"
	"fmt"
)

const (
	SectionVolume     = 16 * 16 * 16
	SectionsPerColumn = 16
	DefaultSkyLight   = 15

	sectionBlockBytes = SectionVolume * 2 // 8192 bytes: 4096 local ids × 2 bytes each
	sectionLightBytes = SectionVolume / 2 // 2048 bytes: 4096 nibbles

	// SectionBufferSize is the size of a packed section: local ids, then
	// block light nibbles, then sky light nibbles.
	SectionBufferSize = sectionBlockBytes + 2*sectionLightBytes
)

// Index returns the voxel index of local coordinates, x fastest then z then y.
func Index(x, y, z int) int {
	return x + z*16 + y*256
}

// NibbleArray packs 4096 four-bit values, low nibble first.
type NibbleArray [sectionLightBytes]byte

func (n *NibbleArray) Get(i int) uint8 {
	b := n[i>>1]
	if i&1 == 0 {
		return b & 0x0F
	}
	return b >> 4
}

func (n *NibbleArray) Set(i int, v uint8) {
	v &= 0x0F
	p := &n[i>>1]
	if i&1 == 0 {
		*p = *p&0xF0 | v
	} else {
		*p = *p&0x0F | v<<4
	}
}

func (n *NibbleArray) fill(v uint8) {
	v &= 0x0F
	b := v | v<<4
	for i := range n {
		n[i] = b
	}
}

// Section is a 16×16×16 voxel grid of chunk-local palette ids and light.
type Section struct {
	Blocks     [SectionVolume]uint16
	BlockLight NibbleArray
	SkyLight   NibbleArray

	nonDefault int
}

// NewSection returns an all-default section: air, block light 0, sky light 15.
func NewSection() *Section {
	s := &Section{}
	s.SkyLight.fill(DefaultSkyLight)
	return s
}

// Set stores a voxel and counts each field that differs from the default.
// Every voxel is expected to be set at most once, as the decoder does.
func (s *Section) Set(idx int, id uint16, blockLight, skyLight uint8) {
	blockLight &= 0x0F
	skyLight &= 0x0F
	s.Blocks[idx] = id
	s.BlockLight.Set(idx, blockLight)
	s.SkyLight.Set(idx, skyLight)
	if id != 0 {
		s.nonDefault++
	}
	if blockLight != 0 {
		s.nonDefault++
	}
	if skyLight != DefaultSkyLight {
		s.nonDefault++
	}
}

// Voxel returns the local id and light levels at idx.
func (s *Section) Voxel(idx int) (id uint16, blockLight, skyLight uint8) {
	return s.Blocks[idx], s.BlockLight.Get(idx), s.SkyLight.Get(idx)
}

// NonDefaultCount is the number of voxel fields that differ from the default,
// up to three per voxel.
func (s *Section) NonDefaultCount() int { return s.nonDefault }

// Buffer packs the section into a new SectionBufferSize byte slice with
// little-endian local ids.
func (s *Section) Buffer() []byte {
	buf := make([]byte, SectionBufferSize)
	for i, id := range s.Blocks {
		binary.LittleEndian.PutUint16(buf[i*2:], id)
	}
	copy(buf[sectionBlockBytes:], s.BlockLight[:])
	copy(buf[sectionBlockBytes+sectionLightBytes:], s.SkyLight[:])
	return buf
}

// SectionFromBuffer unpacks a buffer produced by Buffer.
func SectionFromBuffer(buf []byte, nonDefault int) (*Section, error) {
	if len(buf) != SectionBufferSize {
		return nil, fmt.Errorf("section buffer: got %d bytes, want %d", len(buf), SectionBufferSize)
	}
	s := &Section{nonDefault: nonDefault}
	for i := range s.Blocks {
		s.Blocks[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	copy(s.BlockLight[:], buf[sectionBlockBytes:])
	copy(s.SkyLight[:], buf[sectionBlockBytes+sectionLightBytes:])
	return s, nil
}
