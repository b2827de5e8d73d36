package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"bytepipe/internal/logging"
	"bytepipe/internal/pipeline"
	"bytepipe/internal/telemetry"
	"bytepipe/internal/transport"
)

func Bootstrap(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.PipelineYml == "" {
		return nil, errors.New("engine: no pipeline file configured")
	}

	// 1. metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := telemetry.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	// 2. pipelines (and the optional source runner)
	cat, runner, err := pipeline.Compile(cfg.PipelineYml, m)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	// 3. transport server
	srv, err := transport.StartServer(cfg.GRPCPort, transport.NewService(cat, m))
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	if runner != nil {
		if err := runner.Start(ctx); err != nil {
			srv.Stop()
			_ = runner.Close()
			return nil, err
		}
	}

	e := &Engine{transport: srv, runner: runner, catalog: cat}
	if cfg.MetricsPort > 0 {
		e.metrics = telemetry.Expose(cfg.MetricsPort, reg)
	}
	logging.L().Info().
		Int("grpc_port", cfg.GRPCPort).
		Int("metrics_port", cfg.MetricsPort).
		Strs("pipelines", cat.Names()).
		Msg("engine bootstrapped")
	return e, nil
}
