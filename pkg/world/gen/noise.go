package gen

import "github.com/aquilax/go-perlin"

const (
	noiseAlpha   = 2.0 // smoothing
	noiseBeta    = 2.0 // frequency
	noiseOctaves = 3
)

// noise2D samples 2D Perlin noise mapped to [0, 1].
type noise2D struct {
	p *perlin.Perlin
}

func newNoise(seed int64) noise2D {
	return noise2D{p: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed)}
}

func (n noise2D) at(x, z float64) float64 {
	v := (n.p.Noise2D(x, z) + 1) / 2
	return min(max(v, 0), 1)
}

// chunkRNG is a simple deterministic RNG for per-chunk generation.
type chunkRNG struct {
	state int64
}

func newChunkRNG(seed int64, cx, cz int, salt int64) *chunkRNG {
	s := seed ^ (int64(cx)*341873128712 + int64(cz)*132897987541 + salt)
	return &chunkRNG{state: s}
}

func (r *chunkRNG) next() int64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

func (r *chunkRNG) nextN(n int) int {
	v := int(r.next()>>33) % n
	if v < 0 {
		v = -v
	}
	return v
}
