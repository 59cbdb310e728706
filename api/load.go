package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SchemaVersion is the manifest version this build understands.
const SchemaVersion = "v1"

// Ops lists the step operations a manifest may use.
var Ops = []string{"splice", "delete", "literal", "regex", "insert_before", "insert_after", "confirm_modal"}

// LoadManifest reads a YAML or JSON manifest and checks its shape.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes manifest bytes. JSON is accepted as YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks required fields. Patterns are compiled later, when the
// manifest becomes a recipe.
func (m *Manifest) Validate() error {
	var errs []error
	if m.Version != "" && m.Version != SchemaVersion {
		errs = append(errs, fmt.Errorf("unsupported manifest version %q", m.Version))
	}
	if m.Name == "" {
		errs = append(errs, errors.New("manifest name is required"))
	}
	if len(m.Files) == 0 {
		errs = append(errs, errors.New("manifest has no files"))
	}
	for i, f := range m.Files {
		if f.Path == "" {
			errs = append(errs, fmt.Errorf("files[%d]: path is required", i))
		}
		if filepath.IsAbs(f.Path) {
			errs = append(errs, fmt.Errorf("files[%d]: path %s must be vault-relative", i, f.Path))
		}
		if len(f.Steps) == 0 {
			errs = append(errs, fmt.Errorf("files[%d]: no steps", i))
		}
		for j, s := range f.Steps {
			if err := s.validate(); err != nil {
				errs = append(errs, fmt.Errorf("files[%d].steps[%d]: %w", i, j, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate() error {
	locators := 0
	for _, set := range []bool{s.Lines != nil, s.Markers != nil, s.Match != nil, s.Balanced != nil} {
		if set {
			locators++
		}
	}
	switch s.Op {
	case "splice", "delete":
		if locators != 1 {
			return fmt.Errorf("%s needs exactly one of lines, markers, match, balanced", s.Op)
		}
		if b := s.Balanced; b != nil {
			if b.Head == "" {
				return errors.New("balanced needs head")
			}
			if len(b.Open) > 1 || len(b.Close) > 1 {
				return errors.New("balanced open and close must be single characters")
			}
		}
	case "literal":
		if s.Old == "" {
			return errors.New("literal needs old")
		}
	case "regex":
		if s.Pattern == "" {
			return errors.New("regex needs pattern")
		}
	case "insert_before", "insert_after":
		if s.Anchor == nil || (s.Anchor.Text == "") == (s.Anchor.Pattern == "") {
			return fmt.Errorf("%s needs an anchor with exactly one of text, pattern", s.Op)
		}
		if s.Text == "" && s.ReplacementFile == "" {
			return fmt.Errorf("%s needs text or replacement_file", s.Op)
		}
	case "confirm_modal":
	case "":
		return errors.New("op is required")
	default:
		return fmt.Errorf("unknown op %q (want one of %v)", s.Op, Ops)
	}
	return nil
}
