// Package benchmark scores the direction methods against sheets with known
// row directions.
package benchmark

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sprite-curator/internal/direction"
)

// Case is one sheet with ground-truth row directions.
type Case struct {
	Name         string         `yaml:"name"`
	File         string         `yaml:"file"`
	FrameWidth   int            `yaml:"frame_width"`
	FrameHeight  int            `yaml:"frame_height"`
	FramesPerRow int            `yaml:"frames_per_row"`
	Rows         int            `yaml:"rows"`
	GroundTruth  map[string]int `yaml:"ground_truth"`
}

// Truth returns the parsed ground truth.
func (c Case) Truth() (map[direction.Direction]int, error) {
	out := make(map[direction.Direction]int, len(c.GroundTruth))
	for name, row := range c.GroundTruth {
		d, err := direction.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
		out[d] = row
	}
	return out, nil
}

type corpusFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCorpus reads a YAML corpus. Relative files resolve against the
// corpus directory.
func LoadCorpus(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var cf corpusFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range cf.Cases {
		c := &cf.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("case-%d", i)
		}
		if c.File == "" {
			return nil, fmt.Errorf("case %s: file is required", c.Name)
		}
		if c.FrameWidth <= 0 || c.FrameHeight <= 0 || c.FramesPerRow <= 0 || c.Rows <= 0 {
			return nil, fmt.Errorf("case %s: frame size and layout must be positive", c.Name)
		}
		if _, err := c.Truth(); err != nil {
			return nil, err
		}
		if !filepath.IsAbs(c.File) {
			c.File = filepath.Join(base, c.File)
		}
	}
	return cf.Cases, nil
}
