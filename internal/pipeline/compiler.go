package pipeline

import (
	"fmt"

	"bytepipe/internal/config"
	"bytepipe/internal/telemetry"
	"bytepipe/sink"
	_ "bytepipe/sink/kafka"
	_ "bytepipe/sink/stdout"
	"bytepipe/source/kafka"
)

// LoadCatalog reads only the pipeline definitions of a pipeline file.
func LoadCatalog(path string) (*Catalog, error) {
	cfg, _, err := config.LoadPipelineSpec(path)
	if err != nil {
		return nil, err
	}
	return NewCatalog(cfg.Pipelines)
}

// Compile loads a pipeline file. The runner is nil when the file declares no
// source; the catalog is still served over gRPC.
func Compile(path string, m *telemetry.Metrics) (*Catalog, *Runner, error) {
	cfg, confPath, err := config.LoadPipelineSpec(path)
	if err != nil {
		return nil, nil, err
	}
	cat, err := NewCatalog(cfg.Pipelines)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Source.Kind == "" {
		return cat, nil, nil
	}

	if cfg.Source.Kind != "kafka" {
		return nil, nil, fmt.Errorf("unsupported source %q", cfg.Source.Kind)
	}
	kc, err := config.LoadKafkaConfig(confPath)
	if err != nil {
		return nil, nil, err
	}
	src, err := kafka.NewAdapter(cfg.Source.Driver)
	if err != nil {
		return nil, nil, err
	}
	if err = src.Configure(kc); err != nil {
		return nil, nil, err
	}

	r := NewRunner(cat, cfg.Source.Pipeline)
	r.SetSource(src)
	r.SetMetrics(m)
	r.LogChunks = cfg.Debug.LogChunks
	r.ValueMaxBytes = cfg.Debug.ValueMaxBytes

	for _, name := range cfg.Sinks {
		sDrv, err := sink.NewAdapter(name)
		if err != nil {
			return nil, nil, err
		}

		switch name {
		case "stdout":
			err = sDrv.Configure(cfg.SinkConfigs.Stdout)
		case "kafka":
			err = sDrv.Configure(cfg.SinkConfigs.Kafka)
		default:
			err = fmt.Errorf("no config block for sink %q", name)
		}
		if err != nil {
			return nil, nil, err
		}
		r.AddSink(sDrv)
	}
	return cat, r, nil
}
