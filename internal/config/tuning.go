package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"flicktrainer/internal/analysis"
	"flicktrainer/internal/recommend"
)

// Tuning groups the adjustable constants of the adaptation pipeline.
type Tuning struct {
	Analysis  analysis.Tuning  `yaml:"analysis"`
	Recommend recommend.Tuning `yaml:"recommend"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Analysis:  analysis.DefaultTuning(),
		Recommend: recommend.DefaultTuning(),
	}
}

func (t Tuning) Validate() error {
	if err := t.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := t.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

// LoadTuning reads a YAML tuning file on top of the defaults, so the file
// only needs the values it changes. An empty path yields the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return t, fmt.Errorf("opening tuning file: %w", err)
	}
	defer f.Close()

	d := yaml.NewDecoder(f)
	d.KnownFields(true)
	if err := d.Decode(&t); err != nil {
		return t, fmt.Errorf("decoding tuning file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	log.Printf("[Config] Loaded tuning from %s\n", path)
	return t, nil
}
