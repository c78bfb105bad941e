package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/OCharnyshevich/chunkview/internal/payload"
	"github.com/OCharnyshevich/chunkview/internal/server"
	"github.com/OCharnyshevich/chunkview/pkg/world/gen"
)

func main() {
	var (
		out       = flag.String("o", "./payloads", "payload store directory")
		generator = flag.String("generator", "hills", "terrain generator: hills or flat")
		seed      = flag.Int64("seed", 0, "terrain seed")
		radius    = flag.Int("radius", 4, "chunks generated around the origin")
		cx        = flag.Int("x", 0, "centre chunk x")
		cz        = flag.Int("z", 0, "centre chunk z")
		version   = flag.String("version", "pc-1.8", "block table the payloads target")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	g, err := gen.New(*generator, *seed)
	if err != nil {
		log.Error("create generator", "error", err)
		os.Exit(1)
	}
	store, err := payload.New(*out, log)
	if err != nil {
		log.Error("open payload store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	positions := server.Around(*cx, *cz, *radius)
	for _, p := range positions {
		if err := store.Save(p.X, p.Z, g.Generate(p.X, p.Z).Payload(p.X, p.Z)); err != nil {
			log.Error("save payload", "error", err)
			os.Exit(1)
		}
	}

	m := &payload.Manifest{
		Version:   *version,
		Generator: *generator,
		Seed:      *seed,
		Radius:    *radius,
		Chunks:    len(positions),
	}
	if err := store.SaveManifest(m); err != nil {
		log.Error("save manifest", "error", err)
		os.Exit(1)
	}
	log.Info("payloads written", "dir", *out, "chunks", len(positions), "generator", *generator, "seed", *seed)
}
