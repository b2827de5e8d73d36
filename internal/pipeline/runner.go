package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	pb "bytepipe/api/proto/v1"
	"bytepipe/internal/logging"
	"bytepipe/internal/telemetry"
	"bytepipe/sink"
	"bytepipe/source/kafka"
	"bytepipe/stream"
)

// Runner feeds every record of a source, in order, into one stream of the
// selected pipeline and pushes the output chunks to all sinks.
type Runner struct {
	catalog  *Catalog
	pipeline string
	source   kafka.Adapter
	sinks    []sink.Adapter
	metrics  *telemetry.Metrics
	log      zerolog.Logger

	// LogChunks logs every output chunk at debug.
	LogChunks     bool
	ValueMaxBytes int

	mu      sync.Mutex
	s       *stream.Stream
	runID   string
	sinkErr error
	done    chan struct{}
	err     error
}

func NewRunner(c *Catalog, pipeline string) *Runner {
	return &Runner{
		catalog:  c,
		pipeline: pipeline,
		log:      logging.Component("runner").With().Str("pipeline", pipeline).Logger(),
	}
}

func (r *Runner) AddSink(s sink.Adapter)          { r.sinks = append(r.sinks, s) }
func (r *Runner) SetSource(s kafka.Adapter)       { r.source = s }
func (r *Runner) SetMetrics(m *telemetry.Metrics) { r.metrics = m }
func (r *Runner) Stream() *stream.Stream          { return r.s }

/*──────── frame routing ───────*/
func (r *Runner) pushFrame(f *pb.Frame) error {
	for _, s := range r.sinks {
		if err := s.Push(f); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) onData(p []byte) {
	if len(p) == 0 || r.sinkErr != nil {
		return
	}
	if r.LogChunks {
		shown := p
		if r.ValueMaxBytes > 0 && len(shown) > r.ValueMaxBytes {
			shown = shown[:r.ValueMaxBytes]
		}
		r.log.Debug().Int("len", len(p)).Bytes("value", shown).Msg("chunk")
	}
	r.sinkErr = r.pushFrame(&pb.Frame{Key: []byte(r.runID), Value: p})
}

// write is the source's emit callback.
func (r *Runner) write(f *pb.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.s.Write(f.GetValue()); err != nil {
		return err
	}
	return r.sinkErr
}

// Start opens the run's stream and consumes the source in the background.
// When the source stops cleanly or ctx is cancelled the stream is ended and
// its remaining output flushed; on a source error it is closed.
func (r *Runner) Start(ctx context.Context) error {
	if r.source == nil {
		return errors.New("runner: no source configured")
	}
	r.runID = uuid.NewString()
	s, err := r.catalog.NewStream(r.pipeline, stream.WithLogger(r.log.With().Str("run", r.runID).Logger()))
	if err != nil {
		return err
	}
	r.s = s
	s.OnData(r.onData)
	if r.metrics != nil {
		r.metrics.Observe(s, r.pipeline)
	}

	r.done = make(chan struct{})
	r.log.Info().Str("run", r.runID).Msg("runner started")
	go func() {
		defer close(r.done)
		r.err = r.finish(r.source.Run(ctx, r.write))
	}()
	return nil
}

func (r *Runner) finish(srcErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if srcErr != nil && !errors.Is(srcErr, context.Canceled) {
		_ = r.s.Close()
		r.log.Warn().Err(srcErr).Msg("runner stopped by source error")
		return srcErr
	}
	if err := r.s.End(nil); err != nil {
		return err
	}
	if r.sinkErr != nil {
		return r.sinkErr
	}
	r.log.Info().Int64("consumed", r.s.Consumed()).Msg("runner finished")
	return nil
}

// Wait blocks until the source has stopped and returns the run's error.
func (r *Runner) Wait() error {
	if r.done == nil {
		return nil
	}
	<-r.done
	return r.err
}

// Close stops the source, waits for the run to finish and closes the sinks.
func (r *Runner) Close() error {
	var errs []error
	if r.source != nil {
		errs = append(errs, r.source.Close())
	}
	if err := r.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		errs = append(errs, err)
	}
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
