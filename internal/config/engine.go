package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Engine is the process-level configuration.
type Engine struct {
	GRPCPort    int    `koanf:"grpc_port"`
	MetricsPort int    `koanf:"metrics_port"` // -1 disables the metrics listener
	PipelineYml string `koanf:"pipeline"`
	LogLevel    string `koanf:"log_level"`
	LogJSON     bool   `koanf:"log_json"`
}

// LoadEngineConfig merges YAML (if present) with env-vars
// (prefix `BYTEPIPE__`, delimiter `__`). A relative pipeline path is resolved
// against the directory of the engine config.
func LoadEngineConfig(path string) (Engine, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Engine{}, err
		}
	}
	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return Engine{}, fmt.Errorf("engine schema_version %q not supported (want %s)", sv, SupportedSchema)
	}

	_ = k.Load(env.Provider("BYTEPIPE__", "__", envKey("BYTEPIPE__")), nil)

	var cfg Engine
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	if path != "" && cfg.PipelineYml != "" && !filepath.IsAbs(cfg.PipelineYml) {
		cfg.PipelineYml = filepath.Join(filepath.Dir(path), cfg.PipelineYml)
	}
	applyEngineDefaults(&cfg)
	return cfg, nil
}

func applyEngineDefaults(c *Engine) {
	if c.GRPCPort == 0 {
		c.GRPCPort = 7070
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = 9100
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// envKey maps BYTEPIPE__GRPC_PORT to grpc_port.
func envKey(prefix string) func(string) string {
	return func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, prefix))
	}
}
