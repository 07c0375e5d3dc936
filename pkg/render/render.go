// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package render serializes mysql-diag configuration documents.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pingcap/mysql-diag-config/pkg/types"
)

// Format represents the serialization format of the rendered document
type Format string

const (
	// YAMLFormat is the format mysql-diag reads by default
	YAMLFormat Format = "yaml"
	// JSONFormat represents JSON format
	JSONFormat Format = "json"
	// TOMLFormat represents TOML format
	TOMLFormat Format = "toml"
)

// ParseFormat maps a user-supplied name to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "yaml", "yml":
		return YAMLFormat, nil
	case "json":
		return JSONFormat, nil
	case "toml":
		return TOMLFormat, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", name)
	}
}

// Renderer serializes configuration documents
type Renderer struct {
	format Format
}

// NewRenderer creates a new renderer
func NewRenderer(format Format) *Renderer {
	return &Renderer{
		format: format,
	}
}

// Format returns the renderer's output format
func (r *Renderer) Format() Format {
	return r.format
}

// Render serializes the document
func (r *Renderer) Render(doc *types.ConfigDocument) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("nothing to render")
	}
	switch r.format {
	case YAMLFormat:
		return r.renderYAML(doc)
	case JSONFormat:
		return r.renderJSON(doc)
	case TOMLFormat:
		return r.renderTOML(doc)
	default:
		return nil, fmt.Errorf("unsupported format: %s", r.format)
	}
}

// WriteFile renders the document and writes it to path.
// Nothing is written when rendering fails.
func (r *Renderer) WriteFile(doc *types.ConfigDocument, path string) error {
	data, err := r.Render(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// the document carries database passwords
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (r *Renderer) renderYAML(doc *types.ConfigDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderJSON(doc *types.ConfigDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func (r *Renderer) renderTOML(doc *types.ConfigDocument) ([]byte, error) {
	data, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TOML: %w", err)
	}
	return data, nil
}
