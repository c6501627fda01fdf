// Package loader reads measurement drafts from YAML or JSON files.
//
// A draft file carries the four form fields and, optionally, the two
// correction intercepts:
//
//	sample_length: 39.92
//	sample_diameter: 19.85
//	volumetric_gas_flow_rate: 391.4, 361.51, 335.96
//	differential_pressures: [1805.2, 1686.2, 1586.8]
//	forchheimer_intercept: "6.7890e+12"
//	klinkenberg_intercept: "1.5000e-13"
//
// Numbers are kept as the literal text found in the file; lists may be
// written either as comma-delimited text or as sequences.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
	"github.com/0xcro3dile/permlab/internal/domain/ports"
)

// draftDocument is the on-disk shape shared by both formats.
type draftDocument struct {
	Length    textField `json:"sample_length" yaml:"sample_length"`
	Diameter  textField `json:"sample_diameter" yaml:"sample_diameter"`
	FlowRates textField `json:"volumetric_gas_flow_rate" yaml:"volumetric_gas_flow_rate"`
	Pressures textField `json:"differential_pressures" yaml:"differential_pressures"`

	ForchheimerIntercept textField `json:"forchheimer_intercept" yaml:"forchheimer_intercept"`
	KlinkenbergIntercept textField `json:"klinkenberg_intercept" yaml:"klinkenberg_intercept"`
}

func (d *draftDocument) toFile(path string, content []byte) *ports.DraftFile {
	return &ports.DraftFile{
		ID:   generateDraftID(path, content),
		Path: path,
		Draft: entities.DraftFields{
			Length:    string(d.Length),
			Diameter:  string(d.Diameter),
			FlowRates: string(d.FlowRates),
			Pressures: string(d.Pressures),
		},
		Corrections: entities.CorrectionInputs{
			ForchheimerIntercept: string(d.ForchheimerIntercept),
			KlinkenbergIntercept: string(d.KlinkenbergIntercept),
		},
	}
}

// textField holds a scalar as literal text, or a sequence joined by ", ".
type textField string

func (f *textField) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*f = ""
			return nil
		}
		*f = textField(node.Value)
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, c := range node.Content {
			if c.Kind != yaml.ScalarNode {
				return errors.Errorf("line %d: list items must be scalars", c.Line)
			}
			items = append(items, c.Value)
		}
		*f = textField(strings.Join(items, ", "))
	default:
		return errors.Errorf("line %d: expected a value or a list", node.Line)
	}
	return nil
}

func (f *textField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = textField(s)
	case len(data) > 0 && data[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, len(raw))
		for i, r := range raw {
			var item textField
			if err := item.UnmarshalJSON(r); err != nil {
				return err
			}
			items[i] = string(item)
		}
		*f = textField(strings.Join(items, ", "))
	default:
		// a bare number: keep its literal form
		*f = textField(data)
	}
	return nil
}

// YAMLLoader loads .yaml and .yml drafts.
type YAMLLoader struct{}

// NewYAMLLoader creates a new YAML draft loader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// Load reads a YAML draft from the given path.
func (l *YAMLLoader) Load(ctx context.Context, path string) (*ports.DraftFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading draft %s", path)
	}
	var doc draftDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing YAML draft %s", path)
	}
	return doc.toFile(path, content), nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *YAMLLoader) SupportedExtensions() []string {
	return []string{".yaml", ".yml"}
}

// JSONLoader loads .json drafts.
type JSONLoader struct{}

// NewJSONLoader creates a new JSON draft loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// Load reads a JSON draft from the given path.
func (l *JSONLoader) Load(ctx context.Context, path string) (*ports.DraftFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading draft %s", path)
	}
	var doc draftDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing JSON draft %s", path)
	}
	return doc.toFile(path, content), nil
}

// SupportedExtensions returns file extensions.
func (l *JSONLoader) SupportedExtensions() []string {
	return []string{".json"}
}

// MultiLoader combines multiple loaders.
type MultiLoader struct {
	loaders map[string]ports.DraftLoader
}

// NewMultiLoader creates a loader that handles every draft format.
func NewMultiLoader() *MultiLoader {
	m := &MultiLoader{loaders: make(map[string]ports.DraftLoader)}
	for _, l := range []ports.DraftLoader{NewYAMLLoader(), NewJSONLoader()} {
		for _, ext := range l.SupportedExtensions() {
			m.loaders[ext] = l
		}
	}
	return m
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) (*ports.DraftFile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := m.loaders[ext]
	if !ok {
		return nil, errors.Errorf("unsupported draft format %q", ext)
	}
	return loader.Load(ctx, path)
}

// SupportedExtensions returns all supported extensions.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	return exts
}

// generateDraftID derives a deterministic ID from a draft's path and content.
func generateDraftID(path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil)[:8])
}
