package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"sprite-curator/internal/raster"
)

// Sheet is one catalog entry to process.
type Sheet struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Path        string   `yaml:"path" json:"path"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Manifest is the on-disk list of sheets for a run.
type Manifest struct {
	Sheets []Sheet `yaml:"sheets"`
}

// LoadManifest reads a YAML manifest. Relative sheet paths are resolved
// against the manifest's directory.
func LoadManifest(path string) ([]Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(m.Sheets))
	for i := range m.Sheets {
		s := &m.Sheets[i]
		s.ID = strings.TrimSpace(s.ID)
		if s.Path == "" {
			return nil, fmt.Errorf("manifest sheet %d: path is required", i)
		}
		if s.ID == "" {
			s.ID = idFromPath(s.Path)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("manifest sheet %d: duplicate id %q", i, s.ID)
		}
		if !raster.IsSupportedFormat(s.Path) {
			return nil, fmt.Errorf("manifest sheet %d: unsupported image format %q", i, filepath.Ext(s.Path))
		}
		seen[s.ID] = true
		if !filepath.IsAbs(s.Path) {
			s.Path = filepath.Join(base, s.Path)
		}
	}
	return m.Sheets, nil
}

// SheetsFromPaths builds sheets for loose image files, naming each after its
// file.
func SheetsFromPaths(paths []string) ([]Sheet, error) {
	if len(paths) == 0 {
		return nil, errors.New("no sheet paths")
	}
	sheets := make([]Sheet, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if !raster.IsSupportedFormat(p) {
			return nil, fmt.Errorf("%s: unsupported image format (want one of %s)", p, strings.Join(raster.SupportedFormats(), ", "))
		}
		id := idFromPath(p)
		if seen[id] {
			return nil, fmt.Errorf("duplicate sheet id %q from %s", id, p)
		}
		seen[id] = true
		sheets = append(sheets, Sheet{ID: id, Title: id, Path: p})
	}
	return sheets, nil
}

func idFromPath(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
