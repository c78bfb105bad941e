package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCharnyshevich/chunkview/internal/block"
	"github.com/OCharnyshevich/chunkview/internal/chunk"
	"github.com/OCharnyshevich/chunkview/internal/mesh"
	"github.com/OCharnyshevich/chunkview/pkg/gamedata"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *block.Registry {
	t.Helper()
	gd, err := gamedata.Load("pc-1.8")
	require.NoError(t, err)
	r, err := block.NewRegistry(gd)
	require.NoError(t, err)
	return r
}

// floorSource is a single section with a stone floor at y=0.
type floorSource struct{}

func (floorSource) SectionMask() uint16 { return 0x0001 }

func (floorSource) Voxel(_, idx int) (id uint16, data, blockLight, skyLight uint8) {
	if idx < 256 {
		return 1, 0, 0, 0
	}
	return 0, 0, 0, 15
}

func floorPayload(x, z int) []byte {
	return chunk.EncodePayload(int32(x), int32(z), floorSource{})
}

// One stone layer surrounded by the same layer: only top and bottom faces.
const floorOpaqueBytes = 16 * 16 * 2 * 6 * mesh.VertexSize

func TestWorkerLoadReply(t *testing.T) {
	w := New(0, testRegistry(t), nil, 4, testLogger())

	res := w.Handle(LoadChunk{X: 2, Z: 3, Payload: floorPayload(9, 9), Reply: true})
	loaded, ok := res.(*ChunkLoaded)
	require.True(t, ok, "got %T", res)

	assert.Equal(t, 2, loaded.X)
	assert.Equal(t, 3, loaded.Z)
	require.NotNil(t, loaded.Sections[0])
	assert.Nil(t, loaded.Sections[1])
	assert.Len(t, loaded.Sections[0].Buffer, chunk.SectionBufferSize)
	// 256 stone voxels with sky light 0: two fields each.
	assert.Equal(t, 512, loaded.Sections[0].Count)
	assert.Equal(t, []chunk.PaletteEntry{{ID: 0}, {ID: 1, Key: block.Key{ID: 1}}}, loaded.Palette)
	assert.Equal(t, uint16(2), loaded.NextID)

	_, ok = w.world.Chunk(2, 3)
	assert.True(t, ok)
}

func TestWorkerLoadSilent(t *testing.T) {
	w := New(1, testRegistry(t), nil, 4, testLogger())

	assert.Nil(t, w.Handle(LoadChunk{X: 0, Z: 0, Payload: floorPayload(0, 0)}))
	assert.Equal(t, 1, w.world.Len())

	// A failed decode publishes nothing, with or without reply.
	assert.Nil(t, w.Handle(LoadChunk{X: 1, Z: 0, Payload: []byte{1, 2, 3}}))
	res := w.Handle(LoadChunk{X: 1, Z: 0, Payload: []byte{1, 2, 3}, Reply: true})
	failed, ok := res.(*LoadFailed)
	require.True(t, ok, "got %T", res)
	assert.ErrorIs(t, failed.Err, chunk.ErrShortPayload)
	assert.Equal(t, 1, w.world.Len())

	assert.Nil(t, w.Handle(UnloadChunk{X: 0, Z: 0}))
	assert.Zero(t, w.world.Len())
}

func TestWorkerBuild(t *testing.T) {
	w := New(0, testRegistry(t), nil, 4, testLogger())

	res := w.Handle(BuildSection{X: 0, Z: 0, Section: 0, BuildNumber: 1})
	failed, ok := res.(*BuildFailed)
	require.True(t, ok, "got %T", res)
	assert.ErrorIs(t, failed.Err, ErrChunkNotLoaded)

	w.Handle(LoadChunk{X: 0, Z: 0, Payload: floorPayload(0, 0)})
	res = w.Handle(BuildSection{X: 0, Z: 0, Section: 0, BuildNumber: 2})
	failed, ok = res.(*BuildFailed)
	require.True(t, ok, "got %T", res)
	assert.ErrorIs(t, failed.Err, mesh.ErrNeighborMissing)
	assert.Equal(t, uint64(2), failed.BuildNumber)

	for _, p := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		w.Handle(LoadChunk{X: p[0], Z: p[1], Payload: floorPayload(p[0], p[1])})
	}
	res = w.Handle(BuildSection{X: 0, Z: 0, Section: 0, BuildNumber: 3})
	built, ok := res.(*SectionBuilt)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, uint64(3), built.BuildNumber)
	assert.Len(t, built.Opaque, floorOpaqueBytes)
	assert.Empty(t, built.Transparent)
	assert.Empty(t, built.Placements)
}

func TestViewStaleness(t *testing.T) {
	v := NewView()
	v.ApplyLoaded(&ChunkLoaded{X: 0, Z: 0})

	newer := &SectionBuilt{X: 0, Z: 0, Section: 4, BuildNumber: 3, Opaque: []byte{3}}
	older := &SectionBuilt{X: 0, Z: 0, Section: 4, BuildNumber: 1, Opaque: []byte{1}}

	assert.Equal(t, Applied, v.ApplyBuilt(newer))
	assert.Equal(t, Stale, v.ApplyBuilt(older))

	m, ok := v.Mesh(0, 0, 4)
	require.True(t, ok)
	assert.Equal(t, uint64(3), m.BuildNumber)
	assert.Equal(t, []byte{3}, m.Opaque)

	// Other sections are independent.
	assert.Equal(t, Applied, v.ApplyBuilt(&SectionBuilt{X: 0, Z: 0, Section: 5, BuildNumber: 1}))
	assert.Equal(t, Unloaded, v.ApplyBuilt(&SectionBuilt{X: 9, Z: 9, Section: 4, BuildNumber: 7}))
}

func TestViewUnloadKeepsBuildNumbers(t *testing.T) {
	v := NewView()
	v.ApplyLoaded(&ChunkLoaded{X: 1, Z: 1})
	require.Equal(t, Applied, v.ApplyBuilt(&SectionBuilt{X: 1, Z: 1, Section: 0, BuildNumber: 5}))

	assert.True(t, v.Remove(1, 1))
	assert.False(t, v.Remove(1, 1))
	assert.Equal(t, Unloaded, v.ApplyBuilt(&SectionBuilt{X: 1, Z: 1, Section: 0, BuildNumber: 6}))

	v.ApplyLoaded(&ChunkLoaded{X: 1, Z: 1})
	assert.Equal(t, Stale, v.ApplyBuilt(&SectionBuilt{X: 1, Z: 1, Section: 0, BuildNumber: 4}))
	assert.Equal(t, Applied, v.ApplyBuilt(&SectionBuilt{X: 1, Z: 1, Section: 0, BuildNumber: 7}))
}

func TestCoordinatorDiscardsStaleResults(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	c := NewCoordinator(testRegistry(t), Options{Workers: 1, Metrics: m}, testLogger())

	c.LoadChunk(0, 0, nil)
	c.handle(&ChunkLoaded{X: 0, Z: 0})
	require.True(t, c.View().Loaded(0, 0))

	c.handle(&SectionBuilt{X: 0, Z: 0, Section: 2, BuildNumber: 3, Opaque: make([]byte, 32)})
	c.handle(&SectionBuilt{X: 0, Z: 0, Section: 2, BuildNumber: 1, Opaque: make([]byte, 64)})

	sm, ok := c.View().Mesh(0, 0, 2)
	require.True(t, ok)
	assert.Equal(t, uint64(3), sm.BuildNumber)
	assert.Len(t, sm.Opaque, 32)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sectionsBuilt))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleResults))
	assert.Equal(t, 32.0, testutil.ToFloat64(m.geometryBytes.WithLabelValues("opaque")))

	// Results for an unloaded chunk are dropped without counting as stale.
	c.UnloadChunk(0, 0)
	c.handle(&SectionBuilt{X: 0, Z: 0, Section: 2, BuildNumber: 9})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleResults))

	// A decode finishing after the unload is ignored.
	c.handle(&ChunkLoaded{X: 0, Z: 0})
	assert.False(t, c.View().Loaded(0, 0))
}

func TestCoordinatorRequestBuild(t *testing.T) {
	c := NewCoordinator(testRegistry(t), Options{Workers: 2}, testLogger())

	_, err := c.RequestBuild(0, 0, 0)
	require.ErrorIs(t, err, ErrChunkNotLoaded)

	c.LoadChunk(0, 0, nil)
	c.handle(&ChunkLoaded{X: 0, Z: 0})
	_, err = c.RequestBuild(0, 0, 0)
	require.ErrorIs(t, err, mesh.ErrNeighborMissing)

	_, err = c.RequestBuild(0, 0, 16)
	require.Error(t, err)

	for _, p := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		c.LoadChunk(p[0], p[1], nil)
		c.handle(&ChunkLoaded{X: p[0], Z: p[1]})
	}
	n1, err := c.RequestBuild(0, 0, 3)
	require.NoError(t, err)
	n2, err := c.RequestBuild(0, 0, 3)
	require.NoError(t, err)
	assert.Greater(t, n2, n1)

	other, err := c.RequestBuild(0, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), other)
}

func TestCoordinatorDropsLaggingSubscriber(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	c := NewCoordinator(testRegistry(t), Options{Workers: 1, Metrics: m}, testLogger())

	slow, cancelSlow := c.Subscribe(1)
	fast, cancelFast := c.Subscribe(4)
	defer cancelFast()

	c.publish(Event{Kind: EventChunkUnloaded, X: 1})
	c.publish(Event{Kind: EventChunkUnloaded, X: 2})

	ev, ok := <-slow
	require.True(t, ok)
	assert.Equal(t, 1, ev.X)
	_, ok = <-slow
	assert.False(t, ok, "lagging subscription should be closed")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedSubs))

	// Cancelling after the drop is a no-op.
	cancelSlow()

	assert.Len(t, fast, 2)
	c.publish(Event{Kind: EventChunkUnloaded, X: 3})
	assert.Len(t, fast, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedSubs))
}

func TestCoordinatorRebuildsNeighbourOnReload(t *testing.T) {
	c := NewCoordinator(testRegistry(t), Options{Workers: 2}, testLogger())

	events, cancelSub := c.Subscribe(64)
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitBuild := func(want uint64) {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case ev := <-events:
				if ev.Kind == EventSectionBuilt && ev.X == 0 && ev.Z == 0 && ev.Mesh.BuildNumber == want {
					return
				}
			case <-timeout:
				t.Fatalf("timed out waiting for build %d of 0,0", want)
			}
		}
	}

	for _, p := range [][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		c.LoadChunk(p[0], p[1], floorPayload(p[0], p[1]))
	}
	waitBuild(1)

	// A reloaded neighbour changes the border faces of 0,0.
	c.LoadChunk(1, 0, floorPayload(1, 0))
	waitBuild(2)

	sm, ok := c.View().Mesh(0, 0, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(2), sm.BuildNumber)
	assert.Len(t, sm.Opaque, floorOpaqueBytes)

	cancel()
	require.NoError(t, <-done)
}

func TestCoordinatorEndToEnd(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := NewCoordinator(testRegistry(t), Options{Workers: 3, QueueSize: 2, Metrics: m}, testLogger())

	events, cancelSub := c.Subscribe(64)
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			c.LoadChunk(x, z, floorPayload(x, z))
		}
	}
	c.LoadChunk(5, 5, []byte{0, 1})

	var built *SectionMesh
	timeout := time.After(5 * time.Second)
	for built == nil {
		select {
		case ev := <-events:
			if ev.Kind == EventSectionBuilt && ev.X == 0 && ev.Z == 0 {
				built = ev.Mesh
			}
		case <-timeout:
			t.Fatal("timed out waiting for section build")
		}
	}
	assert.Equal(t, uint64(1), built.BuildNumber)
	assert.Len(t, built.Opaque, floorOpaqueBytes)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.chunksLoaded) == 9 && testutil.ToFloat64(m.loadFailures) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 9, c.View().Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sectionsBuilt))
	assert.Zero(t, testutil.ToFloat64(m.buildFailures))

	n, err := c.RequestBuild(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	require.Eventually(t, func() bool {
		sm, ok := c.View().Mesh(0, 0, 0)
		return ok && sm.BuildNumber == 2
	}, 5*time.Second, 10*time.Millisecond)

	c.UnloadChunk(1, 0)
	assert.False(t, c.View().Loaded(1, 0))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop")
	}
}
