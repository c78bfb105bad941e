package gamedata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ParseMinecraftData reads a minecraft-data blocks.json document. Render
// fields are not part of that format and fall back to the registry defaults.
func ParseMinecraftData(version string, data []byte) (*GameData, error) {
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("parse blocks.json: %w", err)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("parse blocks.json: no blocks")
	}
	return &GameData{Version: version, Blocks: NewBlockRegistry(blocks)}, nil
}

// LoadMinecraftData reads blocks.json from a minecraft-data version directory
// such as the one cmd/dmd downloads (./scheme/pc-1.8).
func LoadMinecraftData(dir string) (*GameData, error) {
	path := filepath.Join(dir, "blocks.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseMinecraftData(filepath.Base(dir), data)
}
