package telemetry

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bytepipe/stream"
	"bytepipe/transform"
)

// Metrics counts stream activity per pipeline.
type Metrics struct {
	bytesIn   *prometheus.CounterVec
	bytesOut  *prometheus.CounterVec
	chunksOut *prometheus.CounterVec
	errors    *prometheus.CounterVec
	streams   *prometheus.CounterVec
}

// NewMetrics registers the stream counters with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		bytesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bytepipe_bytes_in_total",
			Help: "Input bytes consumed by pipeline units.",
		}, []string{"pipeline"}),
		bytesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bytepipe_bytes_out_total",
			Help: "Output bytes emitted by pipelines.",
		}, []string{"pipeline"}),
		chunksOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bytepipe_chunks_out_total",
			Help: "Non-empty output chunks emitted by pipelines.",
		}, []string{"pipeline"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bytepipe_stream_errors_total",
			Help: "Streams that failed, by error kind.",
		}, []string{"pipeline", "kind"}),
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bytepipe_streams_total",
			Help: "Finished streams by outcome.",
		}, []string{"pipeline", "outcome"}),
	}
	for _, c := range []prometheus.Collector{m.bytesIn, m.bytesOut, m.chunksOut, m.errors, m.streams} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("telemetry: register: %w", err)
		}
	}
	return m, nil
}

// Observe subscribes to s and attributes its activity to pipeline.
func (m *Metrics) Observe(s *stream.Stream, pipeline string) {
	s.OnData(func(p []byte) {
		if len(p) == 0 {
			return
		}
		m.bytesOut.WithLabelValues(pipeline).Add(float64(len(p)))
		m.chunksOut.WithLabelValues(pipeline).Inc()
	})
	s.OnError(func(err error) {
		m.errors.WithLabelValues(pipeline, ErrorKind(err)).Inc()
		m.streams.WithLabelValues(pipeline, "error").Inc()
	})
	s.OnClose(func() {
		m.bytesIn.WithLabelValues(pipeline).Add(float64(s.Consumed()))
	})
	s.OnSuccess(func() {
		m.streams.WithLabelValues(pipeline, "success").Inc()
	})
}

// ErrorKind classifies err for metric labels.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, transform.ErrValidation):
		return "validation"
	case errors.Is(err, transform.ErrProtocolViolation):
		return "protocol"
	default:
		return "other"
	}
}

// Expose serves g on :port/metrics in the background.
func Expose(port int, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
