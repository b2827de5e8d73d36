package stream

import (
	"github.com/rs/zerolog"

	"bytepipe/transform"
)

type phase int

const (
	phaseOpen phase = iota
	phaseEnding
	phaseClosed
)

// Option configures a Stream.
type Option func(*Stream)

// WithThreshold sets how many bytes must be buffered before the unit is
// invoked. Values below 1 keep the unit's preferred chunk size.
func WithThreshold(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.threshold = n
		}
	}
}

// WithName labels the stream in logs.
func WithName(name string) Option {
	return func(s *Stream) { s.name = name }
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Stream) { s.log = l }
}

// Stream drives one Unit over input delivered in arbitrary increments.
//
// Observers are called synchronously from inside Write, End, Resume and
// Close. They must not call Write, End or Close on the same stream; such
// calls fail with transform.ErrReentrantCall. Pause and Resume only toggle
// the flag the loop checks.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	unit      transform.Unit
	threshold int
	name      string
	log       zerolog.Logger

	buf      []byte
	state    transform.State
	consumed int64
	phase    phase
	paused   bool
	failed   bool
	draining bool

	obs observers
}

// New returns an open stream driving u.
func New(u transform.Unit, opts ...Option) *Stream {
	s := &Stream{
		unit:      u,
		threshold: transform.PreferredChunkSize(u),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.name != "" {
		s.log = s.log.With().Str("stream", s.name).Logger()
	}
	return s
}

// Unit returns the driven unit.
func (s *Stream) Unit() transform.Unit { return s.unit }

// Threshold returns the batching threshold in bytes.
func (s *Stream) Threshold() int { return s.threshold }

// Name returns the stream's label.
func (s *Stream) Name() string { return s.name }

// Buffered returns the number of written bytes not yet consumed.
func (s *Stream) Buffered() int { return len(s.buf) }

// Consumed returns the total number of input bytes the unit has consumed.
func (s *Stream) Consumed() int64 { return s.consumed }

// IsWritable reports whether Write would accept data.
func (s *Stream) IsWritable() bool { return s.phase == phaseOpen }

// IsReadable reports whether the stream may still emit data.
func (s *Stream) IsReadable() bool { return s.phase != phaseClosed }

// Paused reports whether the drain loop is held.
func (s *Stream) Paused() bool { return s.paused }

// OnData registers fn for every chunk of output. The final flush at end of
// stream is always delivered, even when empty.
func (s *Stream) OnData(fn func([]byte)) Handle {
	h := s.obs.handle(EventData)
	s.obs.data.add(h.id, fn)
	return h
}

// OnError registers fn for the single terminal error, if any.
func (s *Stream) OnError(fn func(error)) Handle {
	h := s.obs.handle(EventError)
	s.obs.errs.add(h.id, fn)
	return h
}

// OnEnd registers fn to run once when the stream stops producing output.
func (s *Stream) OnEnd(fn func()) Handle { return s.onSignal(EventEnd, fn) }

// OnClose registers fn to run once when the stream closes.
func (s *Stream) OnClose(fn func()) Handle { return s.onSignal(EventClose, fn) }

// OnSuccess registers fn to run once if all input was transformed without error.
func (s *Stream) OnSuccess(fn func()) Handle { return s.onSignal(EventSuccess, fn) }

func (s *Stream) onSignal(ev Event, fn func()) Handle {
	h := s.obs.handle(ev)
	s.obs.signals[ev].add(h.id, fn)
	return h
}

// Off removes a registered observer.
func (s *Stream) Off(h Handle) bool { return s.obs.off(h) }

// Write appends p and transforms as much of the buffer as the threshold
// allows. It reports whether any input was consumed while the stream is
// not paused; false asks the caller to hold further writes.
//
// Writing to a stream that is ending or closed returns
// transform.ErrStreamClosed. If the unit fails during this call the stream is
// closed and the unit's error is returned as well as notified.
func (s *Stream) Write(p []byte) (bool, error) {
	if s.draining {
		return false, transform.ErrReentrantCall
	}
	if s.phase != phaseOpen {
		return false, transform.ErrStreamClosed
	}
	s.buf = append(s.buf, p...)
	consumed, err := s.drain()
	return consumed && !s.paused, err
}

// End appends p, if any, and finalizes the stream. Once the buffer has been
// fully transformed end, close and success are emitted. End on a stream that
// is already ending or closed does nothing.
//
// If the stream is paused finalization completes on Resume.
func (s *Stream) End(p []byte) error {
	if s.draining {
		return transform.ErrReentrantCall
	}
	if s.phase != phaseOpen {
		return nil
	}
	s.buf = append(s.buf, p...)
	s.phase = phaseEnding
	s.log.Debug().Int("buffered", len(s.buf)).Msg("stream ending")
	_, err := s.drain()
	return err
}

// Close discards buffered input and run state and emits end and close
// without running the unit again. It is idempotent.
func (s *Stream) Close() error {
	if s.draining {
		return transform.ErrReentrantCall
	}
	if s.phase == phaseClosed {
		return nil
	}
	s.log.Debug().Int("discarded", len(s.buf)).Msg("stream closed")
	s.shutdown()
	s.obs.emit(EventEnd)
	s.obs.emit(EventClose)
	return nil
}

// Pause holds the drain loop. Written data keeps accumulating.
func (s *Stream) Pause() { s.paused = true }

// Resume releases the drain loop and immediately transforms whatever is
// buffered. Called from an observer it only clears the pause flag; the
// running loop carries on by itself.
func (s *Stream) Resume() error {
	s.paused = false
	if s.draining || s.phase == phaseClosed {
		return nil
	}
	_, err := s.drain()
	return err
}

func (s *Stream) drain() (bool, error) {
	s.draining = true
	defer func() { s.draining = false }()

	total := 0
	for s.phase != phaseClosed && !s.paused {
		end := s.phase == phaseEnding
		n := transform.Window(len(s.buf), s.threshold, end)
		if !end && n == 0 {
			break
		}

		res, err := s.unit.Transform(transform.Capped(s.buf, n), s.state, end)
		s.state = res.State
		if verr := transform.CheckConsumed(res.Consumed, n); verr != nil {
			s.fail(verr)
			return total > 0, verr
		}

		total += res.Consumed
		s.consumed += int64(res.Consumed)
		if res.Consumed == len(s.buf) {
			s.buf = nil
		} else {
			s.buf = s.buf[res.Consumed:]
		}

		if end || len(res.Output) > 0 {
			s.obs.emitData(res.Output)
		}

		if err != nil {
			s.fail(err)
			return total > 0, err
		}

		if end && len(s.buf) == 0 {
			s.finish()
			break
		}

		if res.Consumed == 0 {
			if end {
				verr := &transform.ProtocolViolationError{
					Consumed:  0,
					Available: n,
					Reason:    "no progress at end of stream",
				}
				s.fail(verr)
				return total > 0, verr
			}
			break
		}
	}
	return total > 0, nil
}

func (s *Stream) fail(err error) {
	s.failed = true
	s.log.Warn().Err(err).Int("discarded", len(s.buf)).Msg("stream failed")
	s.obs.emitError(err)
	s.shutdown()
	s.obs.emit(EventEnd)
	s.obs.emit(EventClose)
}

func (s *Stream) finish() {
	s.shutdown()
	s.log.Debug().Msg("stream finished")
	s.obs.emit(EventEnd)
	s.obs.emit(EventClose)
	if !s.failed {
		s.obs.emit(EventSuccess)
	}
}

func (s *Stream) shutdown() {
	s.phase = phaseClosed
	s.paused = false
	s.buf = nil
	s.state = nil
}
