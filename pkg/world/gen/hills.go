package gen

// HillsGenerator produces rolling Perlin terrain with three biomes, water at
// sea level, ore pockets, trees and plants.
type HillsGenerator struct {
	seed    int64
	terrain noise2D
	detail  noise2D
	biomes  noise2D
	light   *lighting
}

// NewHillsGenerator creates a HillsGenerator from a seed.
func NewHillsGenerator(seed int64) *HillsGenerator {
	return &HillsGenerator{
		seed:    seed,
		terrain: newNoise(seed),
		detail:  newNoise(seed + 1),
		biomes:  newNoise(seed + 42),
		light:   defaultLighting(),
	}
}

func (g *HillsGenerator) Generate(chunkX, chunkZ int) *ChunkData {
	c := &ChunkData{}

	var heights [16][16]int
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			bx := chunkX*16 + x
			bz := chunkZ*16 + z

			biome := g.biomeAt(bx, bz)
			c.SetBiome(x, z, biome)

			h := g.terrainHeight(bx, bz, biome)
			heights[x][z] = h
			fillColumn(c, x, z, h, biome)
		}
	}

	rng := newChunkRNG(g.seed, chunkX, chunkZ, 300)
	placeOres(c, &heights, rng)
	decorate(c, &heights, rng)
	computeLight(c, g.light)
	return c
}

func (g *HillsGenerator) HeightAt(blockX, blockZ int) int {
	return g.terrainHeight(blockX, blockZ, g.biomeAt(blockX, blockZ))
}

func (g *HillsGenerator) biomeAt(bx, bz int) byte {
	v := g.biomes.at(float64(bx)/256.0, float64(bz)/256.0)
	switch {
	case v < 0.38:
		return biomeDesert
	case v > 0.6:
		return biomeForest
	}
	return biomePlains
}

// terrainHeight computes the surface height at a world block coordinate.
func (g *HillsGenerator) terrainHeight(bx, bz int, biome byte) int {
	base := g.terrain.at(float64(bx)/96.0, float64(bz)/96.0)
	detail := g.detail.at(float64(bx)/24.0, float64(bz)/24.0)

	amplitude := 36.0
	if biome == biomeDesert {
		amplitude = 16.0
	}
	h := int(48 + base*amplitude + detail*6)
	return min(max(h, 5), 200)
}

// fillColumn places bedrock, stone, the biome surface and water.
func fillColumn(c *ChunkData, x, z, height int, biome byte) {
	c.SetBlock(x, 0, z, blockBedrock<<4)
	for y := 1; y <= height; y++ {
		c.SetBlock(x, y, z, blockStone<<4)
	}

	switch {
	case biome == biomeDesert:
		for y := height; y > height-3 && y > 1; y-- {
			c.SetBlock(x, y, z, blockSand<<4)
		}
		for y := height - 3; y > height-5 && y > 1; y-- {
			c.SetBlock(x, y, z, blockSandstone<<4)
		}
	case height < seaLevel-1:
		// Gravel on the sea floor.
		for y := height; y > height-2 && y > 1; y-- {
			c.SetBlock(x, y, z, blockGravel<<4)
		}
	case height <= seaLevel+1:
		// Beach.
		for y := height; y > height-3 && y > 1; y-- {
			c.SetBlock(x, y, z, blockSand<<4)
		}
	default:
		c.SetBlock(x, height, z, blockGrass<<4)
		for y := height - 1; y > height-4 && y > 1; y-- {
			c.SetBlock(x, y, z, blockDirt<<4)
		}
	}

	for y := height + 1; y <= seaLevel; y++ {
		c.SetBlock(x, y, z, blockWater<<4)
	}
}

// placeOres scatters small coal and iron pockets into stone.
func placeOres(c *ChunkData, heights *[16][16]int, rng *chunkRNG) {
	ores := []struct {
		state uint16
		count int
		maxY  int
	}{
		{blockCoalOre << 4, 10, 128},
		{blockIronOre << 4, 6, 64},
	}
	for _, o := range ores {
		for range o.count {
			x, z := rng.nextN(16), rng.nextN(16)
			top := min(heights[x][z]-4, o.maxY)
			if top <= 2 {
				continue
			}
			y := 1 + rng.nextN(top-1)
			for i := 0; i < 4; i++ {
				px, pz := x+rng.nextN(2), z+rng.nextN(2)
				if px < 16 && pz < 16 && c.GetBlock(px, y, pz) == blockStone<<4 {
					c.SetBlock(px, y, pz, o.state)
				}
			}
		}
	}
}
