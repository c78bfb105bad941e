package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/chunkview/internal/block"
	"github.com/OCharnyshevich/chunkview/internal/config"
	"github.com/OCharnyshevich/chunkview/internal/transport/ws"
	"github.com/OCharnyshevich/chunkview/internal/worker"
	"github.com/OCharnyshevich/chunkview/pkg/gamedata"
)

const (
	shutdownTimeout = 5 * time.Second
	statsInterval   = 10 * time.Second
)

// Server loads chunks from a Source into a worker.Coordinator and serves
// metrics and the renderer feed.
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *block.Registry
	coord    *worker.Coordinator
	metrics  *prometheus.Registry
	feed     *ws.Server
	source   Source
}

// New builds the block registry named by cfg and a coordinator over it.
func New(cfg *config.Config, source Source, log *slog.Logger) (*Server, error) {
	gd, err := LoadGameData(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := block.NewRegistry(gd)
	if err != nil {
		return nil, fmt.Errorf("build block registry: %w", err)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	coord := worker.NewCoordinator(registry, worker.Options{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		Metrics:   worker.NewMetrics(promReg),
	}, log)

	return &Server{
		cfg:      cfg,
		log:      log,
		registry: registry,
		coord:    coord,
		metrics:  promReg,
		feed:     ws.NewServer(coord, registry.Version(), len(registry.Textures()), log),
		source:   source,
	}, nil
}

// LoadGameData returns the render table at cfg.TablePath when set, then the
// minecraft-data table at cfg.BlocksPath, otherwise the registered table
// cfg.Version.
func LoadGameData(cfg *config.Config) (*gamedata.GameData, error) {
	if cfg.TablePath != "" {
		return gamedata.LoadTable(cfg.TablePath)
	}
	if cfg.BlocksPath != "" {
		return gamedata.LoadMinecraftData(cfg.BlocksPath)
	}
	return gamedata.Load(cfg.Version)
}

// Coordinator returns the server's coordinator.
func (s *Server) Coordinator() *worker.Coordinator { return s.coord }

// Registry returns the block registry.
func (s *Server) Registry() *block.Registry { return s.registry }

// Start runs until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	defer s.source.Close()

	s.log.Info("server started",
		"version", s.registry.Version(),
		"blocks", s.registry.Len(),
		"textures", len(s.registry.Textures()),
		"workers", s.cfg.Workers,
		"generator", s.cfg.GeneratorType,
		"seed", s.cfg.Seed,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.coord.Run(ctx) })
	g.Go(func() error { return s.loadAll(ctx) })
	g.Go(func() error { return s.logStats(ctx) })

	if s.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
		g.Go(func() error { return s.serve(ctx, "metrics", s.cfg.MetricsAddr, mux) })
	}
	if s.cfg.FeedAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/feed", s.feed.Handler())
		g.Go(func() error { return s.serve(ctx, "feed", s.cfg.FeedAddr, mux) })
	}

	err := g.Wait()
	s.log.Info("server shutting down")
	return err
}

// loadAll queues every payload of the source. Chunks whose payload cannot
// be read are skipped.
func (s *Server) loadAll(ctx context.Context) error {
	positions, err := s.source.Positions()
	if err != nil {
		return err
	}
	for _, p := range positions {
		if ctx.Err() != nil {
			return nil
		}
		data, err := s.source.Payload(p.X, p.Z)
		if err != nil {
			s.log.Warn("read payload", "x", p.X, "z", p.Z, "error", err)
			continue
		}
		s.coord.LoadChunk(p.X, p.Z, data)
	}
	s.log.Info("payloads queued", "chunks", len(positions))
	return nil
}

func (s *Server) logStats(ctx context.Context) error {
	t := time.NewTicker(statsInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.log.Info("view stats",
				"chunks", s.coord.View().Len(),
				"models", s.registry.ModelsBuilt(),
				"feedClients", s.feed.Clients(),
			)
		}
	}
}

func (s *Server) serve(ctx context.Context, name, addr string, h http.Handler) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("http listening", "name", name, "addr", listener.Addr().String())
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", name, err)
	}
	return nil
}
