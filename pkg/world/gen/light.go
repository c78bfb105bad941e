package gen

import (
	"fmt"
	"sync"

	"github.com/OCharnyshevich/chunkview/pkg/gamedata"
)

// TableVersion is the block table whose ids the generators emit.
const TableVersion = "pc-1.8"

// lighting holds per block id light values read from a block table. Ids the
// table does not know block all light and emit none.
type lighting struct {
	filter [4096]uint8
	emit   [4096]uint8
}

func newLighting(blocks gamedata.BlockRegistry) *lighting {
	l := &lighting{}
	for i := range l.filter {
		l.filter[i] = 15
	}
	for _, b := range blocks.All() {
		if b.ID < 0 || b.ID >= len(l.filter) {
			continue
		}
		l.filter[b.ID] = uint8(min(max(b.FilterLight, 0), 15))
		l.emit[b.ID] = uint8(min(max(b.EmitLight, 0), 15))
	}
	return l
}

// defaultLighting reads the embedded TableVersion table once.
var defaultLighting = sync.OnceValue(func() *lighting {
	gd, err := gamedata.Load(TableVersion)
	if err != nil {
		panic(fmt.Sprintf("gen: load block table %s: %v", TableVersion, err))
	}
	return newLighting(gd.Blocks)
})

// filterOf is how much sky light a block state absorbs; 15 blocks it.
func (l *lighting) filterOf(state uint16) uint8 { return l.filter[state>>4] }

func (l *lighting) emissionOf(state uint16) uint8 { return l.emit[state>>4] }

// computeLight fills sky light straight down each column and sets block
// light on emitting blocks. Light does not spread sideways.
func computeLight(c *ChunkData, l *lighting) {
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			sky := uint8(15)
			for y := 255; y >= 0; y-- {
				sec := c.Sections[y>>4]
				if sec == nil {
					continue
				}
				idx := (y&0xF)*256 + z*16 + x
				state := sec.Blocks[idx]
				if f := l.filterOf(state); f >= sky {
					sky = 0
				} else {
					sky -= f
				}
				sec.SkyLight[idx] = sky
				sec.BlockLight[idx] = l.emissionOf(state)
			}
		}
	}
}
