// Package cli wires the cobra command surface around runtime/template's
// facade, in the teacher's RunE/persistent-flag style.
package cli

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tmplforge/doctpl/core/exec"
	"github.com/tmplforge/doctpl/runtime/template"
)

// FileConfig mirrors §6's configuration surface for YAML loading via
// `doctpl --config doctpl.yaml`.
type FileConfig struct {
	Debug              bool   `yaml:"debug"`
	MaxMergeIterations int    `yaml:"max_merge_iterations"`
	StylingEmit        string `yaml:"styling_emit"`
	SchemaFile         string `yaml:"schema_file"`
}

// loadConfig reads and parses a YAML config file; a missing path is not an
// error — callers fall back to template.Config{}'s defaults.
func loadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, err
	}
	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// toTemplateConfig resolves a FileConfig plus its schema file (if any)
// into a template.Config ready for template.Open.
func (fc FileConfig) toTemplateConfig() (template.Config, error) {
	cfg := template.Config{
		Debug:              fc.Debug,
		MaxMergeIterations: fc.MaxMergeIterations,
		StylingEmit:        exec.StylingEmit(fc.StylingEmit),
	}
	if fc.SchemaFile != "" {
		raw, err := os.ReadFile(fc.SchemaFile)
		if err != nil {
			return template.Config{}, err
		}
		cfg.Schema = raw
	}
	return cfg, nil
}
