package chunk_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCharnyshevich/chunkview/internal/block"
	"github.com/OCharnyshevich/chunkview/internal/chunk"
	"github.com/OCharnyshevich/chunkview/pkg/gamedata"
)

func newRegistry(t *testing.T) *block.Registry {
	t.Helper()
	gd, err := gamedata.Load("pc-1.8")
	require.NoError(t, err)
	r, err := block.NewRegistry(gd)
	require.NoError(t, err)
	return r
}

type record struct {
	id         uint16
	data       uint8
	blockLight uint8
	skyLight   uint8
}

// payload builds a payload whose present sections are filled with default
// voxels, then applies overrides keyed by (section, index).
func payload(mask uint16, overrides map[[2]int]record) []byte {
	buf := make([]byte, chunk.PayloadSize(mask))
	binary.BigEndian.PutUint16(buf[8:], mask)
	offsets := map[int]int{}
	off := chunk.HeaderSize
	for s := 0; s < 16; s++ {
		if mask&(1<<uint(s)) == 0 {
			continue
		}
		offsets[s] = off
		for i := 0; i < chunk.SectionVolume; i++ {
			buf[off+4] = chunk.DefaultSkyLight
			off += chunk.RecordSize
		}
	}
	for pos, r := range overrides {
		o := offsets[pos[0]] + pos[1]*chunk.RecordSize
		binary.BigEndian.PutUint16(buf[o:], r.id)
		buf[o+2] = r.data
		buf[o+3] = r.blockLight
		buf[o+4] = r.skyLight
	}
	return buf
}

func recount(s *chunk.Section) int {
	n := 0
	for i := 0; i < chunk.SectionVolume; i++ {
		id, bl, sl := s.Voxel(i)
		if id != 0 {
			n++
		}
		if bl != 0 {
			n++
		}
		if sl != chunk.DefaultSkyLight {
			n++
		}
	}
	return n
}

func TestDecodeAllAirSection(t *testing.T) {
	r := newRegistry(t)

	c, err := chunk.Decode(payload(0x0001, nil), 0, 0, r)
	require.NoError(t, err)

	require.NotNil(t, c.Sections[0])
	for i := 1; i < 16; i++ {
		assert.Nil(t, c.Sections[i], "section %d", i)
	}
	assert.Equal(t, 0, c.Sections[0].NonDefaultCount())
	assert.Equal(t, []chunk.PaletteEntry{{ID: 0, Key: block.Key{}}}, c.Palette.Entries())
	assert.Equal(t, uint16(1), c.Palette.NextID())
}

func TestDecodeUnknownBlockIsMissing(t *testing.T) {
	r := newRegistry(t)
	p := payload(0x0001, map[[2]int]record{
		{0, chunk.Index(5, 0, 0)}: {id: 300, data: 2, skyLight: 15},
	})

	c, err := chunk.Decode(p, 0, 0, r)
	require.NoError(t, err)

	assert.Same(t, block.Missing, c.Block(5, 0, 0))
	assert.Same(t, block.Air, c.Block(4, 0, 0))
	assert.Equal(t, 2, c.Palette.Len())
	assert.Equal(t, block.MissingKey, c.Palette.Entries()[1].Key)
}

func TestDecodeNonDefaultCount(t *testing.T) {
	r := newRegistry(t)
	p := payload(0x0001, map[[2]int]record{
		{0, 0}:   {id: 1, blockLight: 3, skyLight: 15}, // block, light
		{0, 1}:   {id: 0, blockLight: 0, skyLight: 0},  // sky
		{0, 100}: {id: 1, blockLight: 2, skyLight: 4},  // all three
		{0, 200}: {id: 3, skyLight: 15},                // block
	})

	c, err := chunk.Decode(p, 0, 0, r)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Sections[0].NonDefaultCount())
	assert.Equal(t, recount(c.Sections[0]), c.Sections[0].NonDefaultCount())
}

func TestDecodeMasksLight(t *testing.T) {
	r := newRegistry(t)
	p := payload(0x0001, map[[2]int]record{
		{0, 7}: {id: 1, blockLight: 0xF3, skyLight: 0x2F},
	})

	c, err := chunk.Decode(p, 0, 0, r)
	require.NoError(t, err)
	bl, sl := c.Light(7, 0, 0)
	assert.Equal(t, uint8(3), bl)
	assert.Equal(t, uint8(15), sl)
}

func TestDecodePaletteOrder(t *testing.T) {
	r := newRegistry(t)
	p := payload(0x0005, map[[2]int]record{
		{0, 3}:  {id: 3, skyLight: 15},          // dirt first in scan order
		{0, 10}: {id: 1, skyLight: 15},          // stone
		{0, 11}: {id: 3, skyLight: 15},          // dirt again
		{2, 0}:  {id: 1, data: 1, skyLight: 15}, // granite, later section
	})

	c, err := chunk.Decode(p, 0, 0, r)
	require.NoError(t, err)

	want := []chunk.PaletteEntry{
		{ID: 0, Key: block.Key{}},
		{ID: 1, Key: block.Key{ID: 3}},
		{ID: 2, Key: block.Key{ID: 1}},
		{ID: 3, Key: block.Key{ID: 1, Data: 1}},
	}
	assert.Equal(t, want, c.Palette.Entries())
	assert.Equal(t, uint16(1), c.Sections[0].Blocks[11])

	seen := map[*block.Definition]uint16{}
	for _, e := range c.Palette.Entries() {
		def := c.Palette.Definition(e.ID)
		if prev, dup := seen[def]; dup {
			t.Fatalf("%s has ids %d and %d", def, prev, e.ID)
		}
		seen[def] = e.ID
		id, ok := c.Palette.Lookup(def)
		require.True(t, ok)
		assert.Equal(t, e.ID, id)
	}
}

func TestDecodeDeterministic(t *testing.T) {
	r := newRegistry(t)
	p := payload(0x8003, map[[2]int]record{
		{0, 0}:    {id: 2, skyLight: 15},
		{1, 4095}: {id: 20, blockLight: 7, skyLight: 9},
		{15, 42}:  {id: 999, skyLight: 15},
	})

	a, err := chunk.Decode(p, 3, -4, r)
	require.NoError(t, err)
	b, err := chunk.Decode(p, 3, -4, r)
	require.NoError(t, err)

	assert.Equal(t, a.Palette.Entries(), b.Palette.Entries())
	for i := range a.Sections {
		if a.Sections[i] == nil {
			assert.Nil(t, b.Sections[i])
			continue
		}
		assert.Equal(t, a.Sections[i].Buffer(), b.Sections[i].Buffer(), "section %d", i)
		assert.Equal(t, a.Sections[i].NonDefaultCount(), b.Sections[i].NonDefaultCount())
	}
}

func TestDecodeSectionsOutsideMask(t *testing.T) {
	r := newRegistry(t)
	c, err := chunk.Decode(payload(0x0104, nil), 0, 0, r)
	require.NoError(t, err)

	for i, sec := range c.Sections {
		assert.Equal(t, i == 2 || i == 8, sec != nil, "section %d", i)
	}
	assert.Equal(t, uint16(0x0104), c.SectionMask())
}

func TestDecodeIgnoresHeaderCoordinates(t *testing.T) {
	r := newRegistry(t)
	p := payload(0x0001, nil)
	binary.BigEndian.PutUint32(p[0:], 7)
	binary.BigEndian.PutUint32(p[4:], 9)

	c, err := chunk.Decode(p, 1, 2, r)
	require.NoError(t, err)
	assert.Equal(t, chunk.Pos{X: 1, Z: 2}, c.Pos())
}

func TestDecodeShortPayload(t *testing.T) {
	r := newRegistry(t)

	full := payload(0x0003, nil)
	tests := map[string][]byte{
		"empty":          nil,
		"header only":    full[:chunk.HeaderSize],
		"one section":    full[:chunk.PayloadSize(0x0001)],
		"one byte short": full[:len(full)-1],
	}
	for name, p := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := chunk.Decode(p, 0, 0, r)
			require.ErrorIs(t, err, chunk.ErrShortPayload)
			assert.Nil(t, c)
		})
	}
}

func TestEncodePayloadRoundTrip(t *testing.T) {
	r := newRegistry(t)
	p := payload(0x0011, map[[2]int]record{
		{0, 0}:  {id: 7, skyLight: 0},
		{4, 17}: {id: 18, data: 2, blockLight: 4, skyLight: 12},
		{4, 18}: {id: 500, skyLight: 15},
	})

	c, err := chunk.Decode(p, 5, 6, r)
	require.NoError(t, err)

	out := chunk.EncodePayload(5, 6, c)
	require.Len(t, out, len(p))
	assert.Equal(t, int32(5), int32(binary.BigEndian.Uint32(out[0:])))

	again, err := chunk.Decode(out, 5, 6, r)
	require.NoError(t, err)
	assert.Equal(t, c.Sections[4].Buffer(), again.Sections[4].Buffer())
	assert.Equal(t, c.Palette.Entries(), again.Palette.Entries())
}

func TestPaletteFromEntries(t *testing.T) {
	r := newRegistry(t)
	c, err := chunk.Decode(payload(0x0001, map[[2]int]record{
		{0, 1}: {id: 12, data: 1, skyLight: 15},
		{0, 2}: {id: 600, skyLight: 15},
	}), 0, 0, r)
	require.NoError(t, err)

	p, err := chunk.PaletteFromEntries(c.Palette.Entries(), r)
	require.NoError(t, err)
	assert.Equal(t, c.Palette.Entries(), p.Entries())
	assert.Same(t, c.Palette.Definition(1), p.Definition(1))
	assert.Same(t, block.Missing, p.Definition(2))

	_, err = chunk.PaletteFromEntries([]chunk.PaletteEntry{{ID: 0, Key: block.Key{ID: 1}}}, r)
	require.Error(t, err)
}
