package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	"github.com/OCharnyshevich/chunkview/internal/block"
)

const (
	headerReserved = 8
	// HeaderSize covers the reserved coordinate bytes and the section mask.
	HeaderSize = headerReserved + 2
	// RecordSize is one voxel: type id (2), data, block light, sky light.
	RecordSize = 5
)

// ErrShortPayload is returned when a payload holds fewer bytes than its
// section mask requires.
var ErrShortPayload = errors.New("short chunk payload")

// Resolver maps a legacy (type id, data) pair to a block definition.
type Resolver interface {
	Resolve(id uint16, data uint8) (*block.Definition, bool)
}

// PayloadSize returns the number of bytes a payload with the given section
// mask occupies.
func PayloadSize(mask uint16) int {
	return HeaderSize + bits.OnesCount16(mask)*SectionVolume*RecordSize
}

// Decode builds a chunk at (x, z) from a payload. The coordinates in the
// payload header are ignored. Unknown block states decode as block.Missing.
// On error no chunk is returned.
func Decode(payload []byte, x, z int, r Resolver) (*Chunk, error) {
	if len(payload) < HeaderSize {
		return nil, fmt.Errorf("decode chunk %d,%d: %w: %d bytes, header needs %d",
			x, z, ErrShortPayload, len(payload), HeaderSize)
	}
	mask := binary.BigEndian.Uint16(payload[headerReserved:])
	if need := PayloadSize(mask); len(payload) < need {
		return nil, fmt.Errorf("decode chunk %d,%d: %w: %d bytes, mask 0x%04x needs %d",
			x, z, ErrShortPayload, len(payload), mask, need)
	}

	c := New(x, z)
	// Last resolved state; runs of the same block are common.
	var (
		lastKey uint32 = 1 << 24
		lastID  uint16
	)
	off := HeaderSize
	for i := 0; i < SectionsPerColumn; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		sec := NewSection()
		for idx := 0; idx < SectionVolume; idx++ {
			rec := payload[off : off+RecordSize]
			off += RecordSize

			typeID := binary.BigEndian.Uint16(rec)
			key := uint32(typeID)<<8 | uint32(rec[2])
			if key != lastKey {
				def, ok := r.Resolve(typeID, rec[2])
				if !ok {
					def = block.Missing
				}
				lastKey, lastID = key, c.Palette.ID(def)
			}
			sec.Set(idx, lastID, rec[3], rec[4])
		}
		c.Sections[i] = sec
	}
	return c, nil
}
