package engine

import (
	"context"
	"net/http"
	"time"

	"bytepipe/internal/config"
	"bytepipe/internal/pipeline"
	"bytepipe/internal/transport"
)

// Config is the engine configuration; see config.LoadEngineConfig.
type Config = config.Engine

type Engine struct {
	transport *transport.Server
	runner    *pipeline.Runner
	metrics   *http.Server
	catalog   *pipeline.Catalog
}

// Catalog returns the pipelines the engine serves.
func (e *Engine) Catalog() *pipeline.Catalog { return e.catalog }

// Addr returns the address the gRPC server listens on.
func (e *Engine) Addr() string { return e.transport.Addr().String() }

// Run serves until ctx is cancelled, then stops the server, the source runner
// and the metrics listener.
func (e *Engine) Run(ctx context.Context) error {

	go func() {
		<-ctx.Done()
		e.transport.Stop()
		if e.runner != nil {
			_ = e.runner.Close()
		}
		if e.metrics != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = e.metrics.Shutdown(shutdownCtx)
		}
	}()

	return e.transport.Serve()
}
