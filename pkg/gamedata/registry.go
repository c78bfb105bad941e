package gamedata

import "sort"

// BlockRegistry gives read access to the blocks of one version.
type BlockRegistry interface {
	ByID(id int) (Block, bool)
	ByName(name string) (Block, bool)
	All() []Block
}

// GameData bundles the data of one game version.
type GameData struct {
	Version string
	Blocks  BlockRegistry
}

type blockList struct {
	blocks []Block
	byID   map[int]int
	byName map[string]int
}

// NewBlockRegistry indexes blocks. The order of All follows block ID.
func NewBlockRegistry(blocks []Block) BlockRegistry {
	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	l := &blockList{
		blocks: sorted,
		byID:   make(map[int]int, len(sorted)),
		byName: make(map[string]int, len(sorted)),
	}
	for i, b := range sorted {
		l.byID[b.ID] = i
		l.byName[b.Name] = i
	}
	return l
}

func (l *blockList) ByID(id int) (Block, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Block{}, false
	}
	return l.blocks[i], true
}

func (l *blockList) ByName(name string) (Block, bool) {
	i, ok := l.byName[name]
	if !ok {
		return Block{}, false
	}
	return l.blocks[i], true
}

func (l *blockList) All() []Block {
	out := make([]Block, len(l.blocks))
	copy(out, l.blocks)
	return out
}
