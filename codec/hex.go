package codec

import (
	"encoding/hex"

	"bytepipe/transform"
)

// HexDecode decodes pairs of hex digits. An odd trailing digit at end of
// stream is invalid.
type HexDecode struct{}

func (HexDecode) PreferredChunkSize() int { return 2 }

func (HexDecode) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	n := transform.Blocks(len(in), 2, false)
	out := make([]byte, n/2)
	if _, err := hex.Decode(out, in[:n]); err != nil {
		return transform.Result{State: st}, transform.Validation("hex-decode", "decode failed", err)
	}
	if end && n != len(in) {
		return transform.Result{Output: out, Consumed: n, State: st},
			transform.Validation("hex-decode", "odd number of digits", nil)
	}
	return transform.Result{Output: out, Consumed: n, State: st}, nil
}

// HexEncode writes lowercase hex.
type HexEncode struct{}

func (HexEncode) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	out := make([]byte, hex.EncodedLen(len(in)))
	hex.Encode(out, in)
	return transform.Result{Output: out, Consumed: len(in), State: st}, nil
}
