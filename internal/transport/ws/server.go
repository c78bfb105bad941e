package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/OCharnyshevich/chunkview/internal/chunk"
	"github.com/OCharnyshevich/chunkview/internal/protocol"
	"github.com/OCharnyshevich/chunkview/internal/worker"
)

const (
	eventBuffer  = 1024
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

// errSubscriptionClosed is returned by writeLoop when the coordinator drops a
// lagging subscription.
var errSubscriptionClosed = errors.New("subscription closed")

// Coordinator is the part of worker.Coordinator the feed needs.
type Coordinator interface {
	View() *worker.View
	Subscribe(buffer int) (<-chan worker.Event, func())
	RequestBuild(x, z, section int) (uint64, error)
}

// Server streams applied chunks and section meshes to renderers over
// websocket. Each message is one protocol frame.
type Server struct {
	coord    Coordinator
	version  string
	textures int
	log      *slog.Logger

	upgrader websocket.Upgrader
	clients  atomic.Int64
}

// NewServer creates a feed for coord. version and textures are reported in
// the Welcome frame.
func NewServer(coord Coordinator, version string, textures int, log *slog.Logger) *Server {
	return &Server{
		coord:    coord,
		version:  version,
		textures: textures,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int { return int(s.clients.Load()) }

// Handler upgrades the request and serves one client until it disconnects.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.Close()

		id := uuid.New()
		log := s.log.With("client", id.String())
		s.clients.Add(1)
		defer s.clients.Add(-1)
		log.Info("feed client connected", "remote", r.RemoteAddr)

		// Subscribe before the snapshot so nothing applied in between is
		// missed. Frames may repeat; clients keep the highest build number.
		events, cancelSub := s.coord.Subscribe(eventBuffer)
		defer cancelSub()

		if err := s.write(conn, protocol.NewWelcome(id, s.version, s.textures)); err != nil {
			log.Debug("write welcome failed", "error", err)
			return
		}
		if err := s.replay(conn); err != nil {
			log.Debug("replay failed", "error", err)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			err := s.writeLoop(ctx, conn, events)
			if errors.Is(err, errSubscriptionClosed) {
				// The client missed events; make it reconnect for a fresh replay.
				log.Warn("feed client fell behind, closing for resync")
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "resync"), time.Now().Add(time.Second))
				_ = conn.Close()
			}
			writeErr <- err
		}()

		s.readLoop(conn, log)

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		log.Info("feed client disconnected")
	}
}

// replay sends the current view, chunks ordered by x then z.
func (s *Server) replay(conn *websocket.Conn) error {
	view := s.coord.View()
	positions := view.Positions()
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].X != positions[j].X {
			return positions[i].X < positions[j].X
		}
		return positions[i].Z < positions[j].Z
	})

	for _, p := range positions {
		cv, ok := view.Chunk(p.X, p.Z)
		if !ok {
			continue
		}
		for _, ev := range snapshotEvents(cv) {
			f, ok := protocol.FromEvent(ev)
			if !ok {
				continue
			}
			if err := s.write(conn, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func snapshotEvents(cv worker.ChunkView) []worker.Event {
	events := []worker.Event{{
		Kind: worker.EventChunkLoaded,
		X:    cv.X,
		Z:    cv.Z,
		Loaded: &worker.ChunkLoaded{
			X:        cv.X,
			Z:        cv.Z,
			Sections: cv.Sections,
			Palette:  cv.Palette,
			NextID:   cv.NextID,
		},
	}}
	for i := 0; i < chunk.SectionsPerColumn; i++ {
		if cv.Meshes[i] == nil {
			continue
		}
		events = append(events, worker.Event{
			Kind:    worker.EventSectionBuilt,
			X:       cv.X,
			Z:       cv.Z,
			Section: i,
			Mesh:    cv.Meshes[i],
		})
	}
	return events
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan worker.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return errSubscriptionClosed
			}
			f, ok := protocol.FromEvent(ev)
			if !ok {
				continue
			}
			if err := s.write(conn, f); err != nil {
				return err
			}
		}
	}
}

// readLoop handles client frames until the connection fails.
func (s *Server) readLoop(conn *websocket.Conn, log *slog.Logger) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		f, err := protocol.Decode(msg)
		if err != nil {
			log.Debug("bad frame", "error", err)
			continue
		}
		switch f := f.(type) {
		case *protocol.RequestBuild:
			n, err := s.coord.RequestBuild(int(f.X), int(f.Z), int(f.Section))
			if err != nil {
				log.Debug("build request rejected", "x", f.X, "z", f.Z, "section", f.Section, "error", err)
				continue
			}
			log.Debug("build requested", "x", f.X, "z", f.Z, "section", f.Section, "build", n)
		default:
			log.Debug("unexpected frame", "id", f.FrameID())
		}
	}
}

func (s *Server) write(conn *websocket.Conn, f protocol.Frame) error {
	data, err := protocol.Encode(f)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, data)
}
