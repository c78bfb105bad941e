package gen

const (
	blockStone     = 1
	blockGrass     = 2
	blockDirt      = 3
	blockBedrock   = 7
	blockWater     = 9 // stationary water
	blockSand      = 12
	blockGravel    = 13
	blockLog       = 17
	blockLeaves    = 18
	blockSandstone = 24
	blockTallGrass = 31
	blockDeadBush  = 32
	blockDandelion = 37
	blockFlower    = 38
	blockCactus    = 81
	blockGlowstone = 89

	blockCoalOre = 16
	blockIronOre = 15

	// Log and leaves variants (metadata).
	woodOak   = 0
	woodBirch = 2

	biomePlains byte = 1
	biomeDesert byte = 2
	biomeForest byte = 4

	seaLevel = 62
)

// Layer is a run of identical blocks in a flat world, bottom up.
type Layer struct {
	State  uint16 // blockID<<4 | metadata
	Height int
}

// DefaultLayers is the classic superflat stack: bedrock at y=0, stone
// y=1..2, dirt y=3, grass y=4.
var DefaultLayers = []Layer{
	{State: blockBedrock << 4, Height: 1},
	{State: blockStone << 4, Height: 2},
	{State: blockDirt << 4, Height: 1},
	{State: blockGrass << 4, Height: 1},
}

// FlatGenerator generates a world of horizontal layers.
type FlatGenerator struct {
	layers []Layer
	height int
	light  *lighting
}

// NewFlatGenerator creates a FlatGenerator with DefaultLayers.
func NewFlatGenerator(_ int64) *FlatGenerator {
	return NewLayeredGenerator(DefaultLayers)
}

// NewLayeredGenerator creates a FlatGenerator from custom layers.
func NewLayeredGenerator(layers []Layer) *FlatGenerator {
	g := &FlatGenerator{layers: layers, light: defaultLighting()}
	for _, l := range layers {
		g.height += l.Height
	}
	return g
}

func (g *FlatGenerator) Generate(_, _ int) *ChunkData {
	c := &ChunkData{}

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			y := 0
			for _, l := range g.layers {
				for i := 0; i < l.Height && y < 256; i++ {
					c.SetBlock(x, y, z, l.State)
					y++
				}
			}
			c.SetBiome(x, z, biomePlains)
		}
	}
	computeLight(c, g.light)
	return c
}

// HeightAt returns the y of the top solid layer.
func (g *FlatGenerator) HeightAt(_, _ int) int {
	return g.height - 1
}
