package gen

// decorate places trees and plants on the surface.
func decorate(c *ChunkData, heights *[16][16]int, rng *chunkRNG) {
	trees := 0
	switch c.Biomes[8*16+8] {
	case biomeForest:
		trees = 6
	case biomePlains:
		trees = 1
	}
	for range trees {
		x, z := rng.nextN(16), rng.nextN(16)
		y := heights[x][z]
		if y <= seaLevel || y >= 248 || c.GetBlock(x, y, z) != blockGrass<<4 {
			continue
		}
		wood := uint16(woodOak)
		if rng.nextN(3) == 0 {
			wood = woodBirch
		}
		placeTree(c, x, y+1, z, wood, rng)
	}

	for range 24 {
		x, z := rng.nextN(16), rng.nextN(16)
		y := heights[x][z]
		if y <= seaLevel || y >= 254 || c.GetBlock(x, y+1, z) != 0 {
			continue
		}
		switch c.GetBlock(x, y, z) {
		case blockSand << 4:
			if c.Biomes[z*16+x] != biomeDesert {
				continue
			}
			if rng.nextN(6) == 0 {
				for dy := 1; dy <= 1+rng.nextN(3); dy++ {
					c.SetBlock(x, y+dy, z, blockCactus<<4)
				}
			} else if rng.nextN(3) == 0 {
				c.SetBlock(x, y+1, z, blockDeadBush<<4)
			}
		case blockGrass << 4:
			switch r := rng.nextN(10); {
			case r < 5:
				c.SetBlock(x, y+1, z, blockTallGrass<<4|1)
			case r < 6:
				c.SetBlock(x, y+1, z, blockDandelion<<4)
			case r < 7:
				c.SetBlock(x, y+1, z, blockFlower<<4|uint16(rng.nextN(3)))
			}
		}
	}
}

// placeTree places a trunk of 4-6 logs with a leaf canopy, clipped to the
// chunk.
func placeTree(c *ChunkData, x, baseY, z int, wood uint16, rng *chunkRNG) {
	trunk := 4 + rng.nextN(3)
	for y := baseY; y < baseY+trunk; y++ {
		c.SetBlock(x, y, z, blockLog<<4|wood)
	}

	leafBase := baseY + trunk - 2
	for dy := 0; dy < 4; dy++ {
		y := leafBase + dy
		radius := 2
		if dy >= 2 {
			radius = 1
		}
		for dx := -radius; dx <= radius; dx++ {
			for dz := -radius; dz <= radius; dz++ {
				lx, lz := x+dx, z+dz
				if lx < 0 || lx >= 16 || lz < 0 || lz >= 16 {
					continue
				}
				// Round off the wide layers.
				if radius == 2 && (dx == 2 || dx == -2) && (dz == 2 || dz == -2) && rng.nextN(2) == 0 {
					continue
				}
				if c.GetBlock(lx, y, lz) == 0 {
					c.SetBlock(lx, y, lz, blockLeaves<<4|wood)
				}
			}
		}
	}
}
