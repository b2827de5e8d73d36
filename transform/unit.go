package transform

// DefaultChunkSize is used for units that do not advertise a preferred
// chunk size.
const DefaultChunkSize = 1024

// State is the opaque per-run value a Unit threads between calls. It is nil
// on the first call of every run.
type State any

// Result is what a single Transform call produced.
type Result struct {
	// Output is the transformed data, possibly empty.
	Output []byte
	// Consumed is the number of bytes removed from the front of the input.
	Consumed int
	// State is stored by the caller and passed back on the next call.
	State State
}

// Unit is a deterministic incremental byte transform.
//
// Transform must not retain or modify in. Consumed must be within
// [0, len(in)]; it is honoured by the caller even when err is non-nil. A
// non-nil err is terminal for the run.
type Unit interface {
	Transform(in []byte, st State, end bool) (Result, error)
}

// ChunkSizer is implemented by units that work best when fed input in
// batches of a particular size.
type ChunkSizer interface {
	PreferredChunkSize() int
}

// UnitFunc adapts an ordinary function to the Unit interface.
type UnitFunc func(in []byte, st State, end bool) (Result, error)

// Transform calls f(in, st, end).
func (f UnitFunc) Transform(in []byte, st State, end bool) (Result, error) {
	return f(in, st, end)
}

// PreferredChunkSize resolves u's batching preference. Hosts call it once at
// construction time and keep the answer.
func PreferredChunkSize(u Unit) int {
	if cs, ok := u.(ChunkSizer); ok {
		if n := cs.PreferredChunkSize(); n > 0 {
			return n
		}
	}
	return DefaultChunkSize
}

// Blocks returns how many of size bytes a block-oriented unit should consume:
// all of them at end of stream, otherwise the whole blocks only.
func Blocks(size, block int, end bool) int {
	if end || block <= 1 {
		return size
	}
	return size - size%block
}

// Window returns how many buffered bytes a host offers a unit per call. At
// end of stream everything is offered; otherwise the largest multiple of
// threshold that is available, which is zero below the threshold.
func Window(buffered, threshold int, end bool) int {
	return Blocks(buffered, threshold, end)
}

// Capped returns p[:n] with its capacity clipped so a unit appending to the
// slice cannot write into the caller's buffer.
func Capped(p []byte, n int) []byte {
	return p[:n:n]
}

func checkConsumed(stage, consumed, available int) error {
	if consumed < 0 || consumed > available {
		return &ProtocolViolationError{
			Stage:     stage,
			Consumed:  consumed,
			Available: available,
			Reason:    "consumed count out of range",
		}
	}
	return nil
}

// CheckConsumed reports a ProtocolViolationError when consumed is outside
// [0, available].
func CheckConsumed(consumed, available int) error {
	return checkConsumed(0, consumed, available)
}
