// Package filter adapts transform units to hosts that push buffered chunks
// and expect a tri-state answer, such as io.Writer and io.Reader pipelines.
package filter

import (
	"bytes"

	"bytepipe/stream"
	"bytepipe/transform"
)

// Status is the outcome of a single Filter call.
type Status int

const (
	// NeedMoreInput means the chunk was accepted but produced no output yet.
	NeedMoreInput Status = iota
	// PassOutput means output is available, or the filter closed cleanly.
	PassOutput
	// FatalError means the unit failed; the filter accepts nothing further.
	FatalError
)

func (s Status) String() string {
	switch s {
	case NeedMoreInput:
		return "need-more-input"
	case PassOutput:
		return "pass-output"
	case FatalError:
		return "fatal-error"
	default:
		return "unknown"
	}
}

// Filter feeds chunks through a unit with the same batching a stream.Stream
// applies, so output chunk boundaries are identical to the stream's.
type Filter struct {
	s   *stream.Stream
	out [][]byte
	err error
}

// New calls create once and returns a filter driving the unit it returns.
func New(create func() transform.Unit, opts ...stream.Option) *Filter {
	f := &Filter{}
	f.s = stream.New(create(), opts...)
	f.s.OnData(func(p []byte) {
		if len(p) > 0 {
			f.out = append(f.out, bytes.Clone(p))
		}
	})
	return f
}

// Filter offers in to the unit. closing marks the final call; in may be
// non-empty on that call. It returns the output chunks produced, the number
// of input bytes the unit consumed during the call and the outcome.
//
// Closing an already closed filter returns PassOutput with no output.
func (f *Filter) Filter(in []byte, closing bool) ([][]byte, int, Status) {
	if f.err != nil {
		return nil, 0, FatalError
	}

	before := f.s.Consumed()
	var err error
	switch {
	case closing && f.s.IsWritable():
		err = f.s.End(in)
	case closing && len(in) > 0:
		err = transform.ErrStreamClosed
	case !closing:
		_, err = f.s.Write(in)
	}
	consumed := int(f.s.Consumed() - before)
	out := f.out
	f.out = nil

	if err != nil {
		f.err = err
		return out, consumed, FatalError
	}
	if len(out) > 0 || closing {
		return out, consumed, PassOutput
	}
	return nil, consumed, NeedMoreInput
}

// Err returns the cause of a FatalError, or nil.
func (f *Filter) Err() error { return f.err }

// Threshold returns the batching threshold in bytes.
func (f *Filter) Threshold() int { return f.s.Threshold() }
