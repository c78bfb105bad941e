package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCharnyshevich/chunkview/internal/config"
	"github.com/OCharnyshevich/chunkview/internal/payload"
	"github.com/OCharnyshevich/chunkview/internal/server"
	"github.com/OCharnyshevich/chunkview/pkg/world/gen"
)

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of mesh workers")
	flag.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "per-worker inbox size")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.StringVar(&cfg.Version, "version", cfg.Version, "block table version")
	flag.StringVar(&cfg.BlocksPath, "blocks", cfg.BlocksPath, "minecraft-data version directory with blocks.json")
	flag.StringVar(&cfg.TablePath, "table", cfg.TablePath, "render table YAML file (overrides -blocks and -version)")
	flag.StringVar(&cfg.PayloadDir, "payloads", cfg.PayloadDir, "payload store directory (empty generates terrain)")
	flag.StringVar(&cfg.GeneratorType, "generator", cfg.GeneratorType, "terrain generator: hills or flat")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "terrain seed")
	flag.IntVar(&cfg.Radius, "radius", cfg.Radius, "chunks generated around the origin")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "prometheus listen address (empty disables)")
	flag.StringVar(&cfg.FeedAddr, "feed-addr", cfg.FeedAddr, "websocket feed listen address (empty disables)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	source, err := newSource(cfg, log)
	if err != nil {
		log.Error("open payload source", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := server.New(cfg, source, log)
	if err != nil {
		log.Error("create server", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newSource(cfg *config.Config, log *slog.Logger) (server.Source, error) {
	if cfg.PayloadDir != "" {
		store, err := payload.New(cfg.PayloadDir, log)
		if err != nil {
			return nil, err
		}
		if m, err := store.LoadManifest(); err != nil {
			log.Warn("read payload manifest", "error", err)
		} else if m != nil {
			log.Info("payload store", "dir", cfg.PayloadDir, "version", m.Version,
				"generator", m.Generator, "seed", m.Seed, "chunks", m.Chunks)
		}
		return server.NewStoreSource(store), nil
	}
	g, err := gen.New(cfg.GeneratorType, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return server.NewGeneratorSource(g, cfg.Radius), nil
}
