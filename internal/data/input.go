package data

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"charge-optimizer/internal/api/models"
)

//go:embed example.json
var exampleJSON []byte

// ExampleJSON returns the raw canned request.
func ExampleJSON() []byte {
	return append([]byte(nil), exampleJSON...)
}

// Example returns a fresh copy of the canned request.
func Example() (*models.OptimizationInput, error) {
	return DecodeJSON(bytes.NewReader(exampleJSON))
}

func DecodeJSON(r io.Reader) (*models.OptimizationInput, error) {
	var in models.OptimizationInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode json input: %w", err)
	}
	return &in, nil
}

func DecodeYAML(r io.Reader) (*models.OptimizationInput, error) {
	var in models.OptimizationInput
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode yaml input: %w", err)
	}
	return &in, nil
}

// LoadInput reads a request from a .json, .yaml or .yml file.
func LoadInput(path string) (*models.OptimizationInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(f)
	case ".json", "":
		return DecodeJSON(f)
	default:
		return nil, fmt.Errorf("unsupported input file type %q", filepath.Ext(path))
	}
}
