package gamedata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed tables/pc-1.8.yaml
var pc18Table []byte

//go:embed tables/table.schema.json
var tableSchemaJSON string

func init() {
	Register("pc-1.8", func() (*GameData, error) {
		return ParseTable(pc18Table)
	})
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func tableSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("table.schema.json", tableSchemaJSON)
	})
	return schema, schemaErr
}

type tableFile struct {
	Version string  `yaml:"version"`
	Blocks  []Block `yaml:"blocks"`
}

// ParseTable validates a YAML block table against the table schema and
// returns its GameData.
func ParseTable(data []byte) (*GameData, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse table: %w", err)
	}
	// The validator works on JSON values, so round-trip the YAML tree.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert table: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(raw, &jsonDoc); err != nil {
		return nil, fmt.Errorf("convert table: %w", err)
	}

	s, err := tableSchema()
	if err != nil {
		return nil, fmt.Errorf("compile table schema: %w", err)
	}
	if err := s.Validate(jsonDoc); err != nil {
		return nil, fmt.Errorf("validate table: %w", err)
	}

	var tf tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	return &GameData{Version: tf.Version, Blocks: NewBlockRegistry(tf.Blocks)}, nil
}

// LoadTable reads and parses a YAML block table from disk.
func LoadTable(path string) (*GameData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return ParseTable(data)
}
