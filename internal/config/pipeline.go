package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"bytepipe/internal/spec"
)

const SupportedSchema = "v1"

// LoadPipelineSpec parses a pipeline YAML, validates schema_version, and
// returns the parsed spec and an absolute path to the source config (if set).
func LoadPipelineSpec(path string) (spec.File, string, error) {
	var cfg spec.File
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, "", err
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, "", fmt.Errorf("pipeline schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if err := validate(cfg); err != nil {
		return cfg, "", err
	}
	confPath := cfg.Source.Config
	if confPath != "" && !filepath.IsAbs(confPath) {
		confPath = filepath.Join(filepath.Dir(path), confPath)
	}
	return cfg, confPath, nil
}

func validate(cfg spec.File) error {
	seen := make(map[string]bool, len(cfg.Pipelines))
	for i, p := range cfg.Pipelines {
		if p.Name == "" {
			return fmt.Errorf("pipelines[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("pipeline %q defined twice", p.Name)
		}
		seen[p.Name] = true
		if len(p.Units) == 0 {
			return fmt.Errorf("pipeline %q: no units", p.Name)
		}
		if p.Threshold < 0 {
			return fmt.Errorf("pipeline %q: negative threshold", p.Name)
		}
	}
	if cfg.Source.Kind != "" && !seen[cfg.Source.Pipeline] {
		return fmt.Errorf("source pipeline %q is not defined", cfg.Source.Pipeline)
	}
	return nil
}
