package chunk

import (
	"fmt"

	"github.com/OCharnyshevich/chunkview/internal/block"
)

// Palette maps chunk-local ids to block definitions and back. Ids are handed
// out in first-seen order starting at 1; id 0 is always air. Entries are
// never removed or reassigned.
type Palette struct {
	defs []*block.Definition
	ids  map[*block.Definition]uint16
}

// NewPalette returns a palette holding only air.
func NewPalette() *Palette {
	return &Palette{
		defs: []*block.Definition{block.Air},
		ids:  map[*block.Definition]uint16{block.Air: 0},
	}
}

// ID returns the local id of def, assigning the next free id on first sight.
func (p *Palette) ID(def *block.Definition) uint16 {
	if id, ok := p.ids[def]; ok {
		return id
	}
	id := uint16(len(p.defs))
	p.defs = append(p.defs, def)
	p.ids[def] = id
	return id
}

// Lookup returns the local id of def without assigning one.
func (p *Palette) Lookup(def *block.Definition) (uint16, bool) {
	id, ok := p.ids[def]
	return id, ok
}

// Definition returns the definition behind a local id, or block.Missing for
// ids the palette never assigned.
func (p *Palette) Definition(id uint16) *block.Definition {
	if int(id) >= len(p.defs) {
		return block.Missing
	}
	return p.defs[id]
}

// NextID is the id the next new definition will receive.
func (p *Palette) NextID() uint16 { return uint16(len(p.defs)) }

// Len returns the number of entries, air included.
func (p *Palette) Len() int { return len(p.defs) }

// PaletteEntry is the transferable form of one palette slot.
type PaletteEntry struct {
	ID  uint16
	Key block.Key
}

// Entries lists the palette in id order.
func (p *Palette) Entries() []PaletteEntry {
	out := make([]PaletteEntry, len(p.defs))
	for i, def := range p.defs {
		out[i] = PaletteEntry{ID: uint16(i), Key: def.Key}
	}
	return out
}

// PaletteFromEntries rebuilds a palette from Entries output. Keys the
// resolver does not know become block.Missing, which may then own several ids.
func PaletteFromEntries(entries []PaletteEntry, r Resolver) (*Palette, error) {
	p := &Palette{
		defs: make([]*block.Definition, len(entries)),
		ids:  make(map[*block.Definition]uint16, len(entries)),
	}
	for i, e := range entries {
		if int(e.ID) != i {
			return nil, fmt.Errorf("palette entry %d has id %d", i, e.ID)
		}
		def := block.Missing
		if e.Key != block.MissingKey {
			if d, ok := r.Resolve(e.Key.ID, e.Key.Data); ok {
				def = d
			}
		}
		if i == 0 && def != block.Air {
			return nil, fmt.Errorf("palette entry 0 is %s, want air", def)
		}
		p.defs[i] = def
		if _, seen := p.ids[def]; !seen {
			p.ids[def] = uint16(i)
		}
	}
	if len(p.defs) == 0 {
		return NewPalette(), nil
	}
	return p, nil
}
