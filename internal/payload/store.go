package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/OCharnyshevich/chunkview/internal/chunk"
)

// ErrNotFound is returned by Load when no payload is stored for a chunk.
var ErrNotFound = errors.New("payload not found")

const (
	chunkDir     = "chunks"
	chunkSuffix  = ".chunk.zst"
	manifestName = "manifest.json"
)

// Manifest describes how a store's payloads were produced.
type Manifest struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
	Seed      int64  `json:"seed"`
	Radius    int    `json:"radius"`
	Chunks    int    `json:"chunks"`
}

// Store keeps zstd-compressed chunk payloads on disk, one file per chunk.
// Different chunks may be saved concurrently; saves of the same chunk may not.
type Store struct {
	dir string
	log *slog.Logger
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New creates a Store rooted at dir, creating subdirectories as needed.
func New(dir string, log *slog.Logger) (*Store, error) {
	chunks := filepath.Join(dir, chunkDir)
	if err := os.MkdirAll(chunks, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", chunks, err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Store{dir: dir, log: log, enc: enc, dec: dec}, nil
}

// Close releases the codec resources.
func (s *Store) Close() error {
	s.dec.Close()
	return s.enc.Close()
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(x, z int) string {
	return filepath.Join(s.dir, chunkDir, fmt.Sprintf("c.%d.%d%s", x, z, chunkSuffix))
}

// Save compresses and writes the payload for chunk (x, z) atomically.
func (s *Store) Save(x, z int, payload []byte) error {
	data := s.enc.EncodeAll(payload, make([]byte, 0, len(payload)/8))
	if err := atomicWrite(s.path(x, z), data); err != nil {
		return fmt.Errorf("save chunk %d,%d: %w", x, z, err)
	}
	s.log.Debug("saved payload", "x", x, "z", z, "raw", len(payload), "stored", len(data))
	return nil
}

// Load reads and decompresses the payload for chunk (x, z).
func (s *Store) Load(x, z int) ([]byte, error) {
	data, err := os.ReadFile(s.path(x, z))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load chunk %d,%d: %w", x, z, ErrNotFound)
		}
		return nil, fmt.Errorf("load chunk %d,%d: %w", x, z, err)
	}
	payload, err := s.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk %d,%d: %w", x, z, err)
	}
	return payload, nil
}

// Delete removes the payload for chunk (x, z). Deleting a missing chunk is
// not an error.
func (s *Store) Delete(x, z int) error {
	if err := os.Remove(s.path(x, z)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete chunk %d,%d: %w", x, z, err)
	}
	return nil
}

// List returns the positions of all stored chunks ordered by x, then z.
func (s *Store) List() ([]chunk.Pos, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, chunkDir))
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	var out []chunk.Pos
	for _, e := range entries {
		pos, ok := parseName(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out, nil
}

// parseName extracts the chunk position from "c.<x>.<z>.chunk.zst".
func parseName(name string) (chunk.Pos, bool) {
	rest, ok := strings.CutSuffix(name, chunkSuffix)
	if !ok {
		return chunk.Pos{}, false
	}
	rest, ok = strings.CutPrefix(rest, "c.")
	if !ok {
		return chunk.Pos{}, false
	}
	var pos chunk.Pos
	if n, err := fmt.Sscanf(rest, "%d.%d", &pos.X, &pos.Z); err != nil || n != 2 {
		return chunk.Pos{}, false
	}
	if fmt.Sprintf("%d.%d", pos.X, pos.Z) != rest {
		return chunk.Pos{}, false
	}
	return pos, true
}

// LoadManifest reads manifest.json. If the file does not exist it returns
// nil and no error.
func (s *Store) LoadManifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// SaveManifest writes m to manifest.json atomically.
func (s *Store) SaveManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	return atomicWrite(filepath.Join(s.dir, manifestName), data)
}

// atomicWrite writes data using a temp file + rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
