// Package config loads tc.yaml, the optional project file for the tc and
// tam commands.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config is
// given.
const DefaultFile = "tc.yaml"

//go:embed schema.json
var schemaJSON string

type Config struct {
	Output    string `yaml:"output"`
	Folding   bool   `yaml:"folding"`
	DebugInfo bool   `yaml:"debugInfo"`
	Show      Show   `yaml:"show"`
	Run       Run    `yaml:"run"`
}

// Show selects the listings tc prints.
type Show struct {
	Tree      bool `yaml:"tree"`
	TreeAfter bool `yaml:"treeAfter"`
	Stats     bool `yaml:"stats"`
	Table     bool `yaml:"table"`
	Code      bool `yaml:"code"`
}

type Run struct {
	// MaxSteps bounds execution; 0 means unbounded.
	MaxSteps int `yaml:"maxSteps"`
}

func Default() Config {
	return Config{Output: "obj.tam"}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		const url = "schema://tc.json"
		if err := compiler.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(url)
	})
	return schema, schemaErr
}

// Parse validates data against the schema and overlays it on Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if doc == nil {
		return cfg, nil
	}

	// The validator expects JSON values, so go through encoding/json.
	raw, err := json.Marshal(doc)
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	s, err := compiledSchema()
	if err != nil {
		return cfg, fmt.Errorf("compiling config schema: %w", err)
	}
	if err := s.Validate(value); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return cfg, fmt.Errorf("invalid config: %s", ve.Error())
		}
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields Default.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
