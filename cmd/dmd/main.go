package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/chunkview/pkg/gamedata"
)

func main() {
	var (
		base     = flag.String("base", "https://github.com/PrismarineJS/minecraft-data.git", "base url")
		platform = flag.String("platform", "pc", "platform of schemas")
		ver      = flag.String("version", "1.8", "version of schemas")
		out      = flag.String("o", "./scheme", "output dir path")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *out == "" || *platform == "" || *ver == "" {
		log.Error("output dir, platform and version are required")
		os.Exit(2)
	}

	path := fmt.Sprintf("%s/%s-%s", *out, *platform, *ver)

	if err := os.RemoveAll(path); err != nil {
		log.Error("clean output dir", "path", path, "error", err)
		os.Exit(1)
	}

	log.Info("start downloading schemes", "path", path)

	// https://github.com/PrismarineJS/minecraft-data/tree/master/data/pc/1.8
	url := fmt.Sprintf("git::%s//data/%s/%s", *base, *platform, *ver)
	if err := get.Get(path, url); err != nil {
		log.Error("download schemes", "url", url, "error", err)
		os.Exit(1)
	}

	// The viewer reads blocks.json; fail now rather than at startup.
	gd, err := gamedata.LoadMinecraftData(path)
	if err != nil {
		log.Error("verify blocks.json", "error", err)
		os.Exit(1)
	}

	log.Info("done downloading schemes", "path", path, "blocks", len(gd.Blocks.All()))
}
