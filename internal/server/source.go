package server

import (
	"fmt"
	"sort"

	"github.com/OCharnyshevich/chunkview/internal/chunk"
	"github.com/OCharnyshevich/chunkview/internal/payload"
	"github.com/OCharnyshevich/chunkview/pkg/world/gen"
)

// Source supplies the chunk payloads the viewer loads at startup.
type Source interface {
	Positions() ([]chunk.Pos, error)
	Payload(x, z int) ([]byte, error)
	Close() error
}

// GeneratorSource generates payloads for every chunk within a radius of the
// origin.
type GeneratorSource struct {
	gen    gen.Generator
	radius int
}

func NewGeneratorSource(g gen.Generator, radius int) *GeneratorSource {
	return &GeneratorSource{gen: g, radius: radius}
}

// Positions returns the chunks nearest the origin first.
func (s *GeneratorSource) Positions() ([]chunk.Pos, error) {
	return Around(0, 0, s.radius), nil
}

func (s *GeneratorSource) Payload(x, z int) ([]byte, error) {
	return s.gen.Generate(x, z).Payload(x, z), nil
}

func (s *GeneratorSource) Close() error { return nil }

// StoreSource reads every payload held by a payload store.
type StoreSource struct {
	store *payload.Store
}

func NewStoreSource(store *payload.Store) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Positions() ([]chunk.Pos, error) {
	positions, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("list payloads: %w", err)
	}
	return positions, nil
}

func (s *StoreSource) Payload(x, z int) ([]byte, error) {
	return s.store.Load(x, z)
}

func (s *StoreSource) Close() error { return s.store.Close() }

// Around returns every position in the square of the given radius around
// (cx, cz), ordered by distance from the centre then by x and z.
func Around(cx, cz, radius int) []chunk.Pos {
	if radius < 0 {
		return nil
	}
	out := make([]chunk.Pos, 0, (2*radius+1)*(2*radius+1))
	for x := cx - radius; x <= cx+radius; x++ {
		for z := cz - radius; z <= cz+radius; z++ {
			out = append(out, chunk.Pos{X: x, Z: z})
		}
	}
	dist := func(p chunk.Pos) int {
		dx, dz := p.X-cx, p.Z-cz
		return dx*dx + dz*dz
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dist(out[i]) < dist(out[j])
	})
	return out
}
