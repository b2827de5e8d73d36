package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"bytepipe/filter"
	"bytepipe/internal/config"
	"bytepipe/internal/engine"
	"bytepipe/internal/logging"
	"bytepipe/internal/pipeline"
)

func main() {
	cfgPath := flag.String("config", "engine.yml", "engine config file (env BYTEPIPE__* overrides)")
	filterName := flag.String("filter", "", "run the named pipeline over stdin and exit")
	flag.Parse()

	cfg, err := config.LoadEngineConfig(*cfgPath)
	if err != nil {
		logging.L().Fatal().Err(err).Msg("config")
	}
	logging.Configure(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if os.Getenv("BYTEPIPE_LOG_LEVEL") != "" || os.Getenv("BYTEPIPE_LOG_JSON") != "" {
		logging.InitFromEnv()
	}

	if *filterName != "" {
		if err := runFilter(cfg, *filterName, os.Stdin, os.Stdout); err != nil {
			logging.L().Fatal().Err(err).Str("pipeline", *filterName).Msg("filter")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := engine.Bootstrap(ctx, cfg)
	if err != nil {
		logging.L().Fatal().Err(err).Msg("bootstrap")
	}

	if err := e.Run(ctx); err != nil {
		logging.L().Fatal().Err(err).Msg("engine")
	}
}

// runFilter pipes in through one run of the named pipeline.
func runFilter(cfg engine.Config, name string, in io.Reader, out io.Writer) error {
	cat, err := pipeline.LoadCatalog(cfg.PipelineYml)
	if err != nil {
		return err
	}
	u, err := cat.NewUnit(name)
	if err != nil {
		return err
	}
	w := filter.NewWriter(out, u, cat.Options(name)...)
	if _, err := io.Copy(w, in); err != nil {
		return err
	}
	return w.Close()
}
