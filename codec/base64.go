package codec

import (
	"bytes"
	"encoding/base64"

	"bytepipe/transform"
)

// Base64Decode decodes standard base64 one quad at a time. Padding is only
// accepted at the end of the stream; a final group of a single character is
// rejected.
type Base64Decode struct{}

func (Base64Decode) PreferredChunkSize() int { return 4 }

func (Base64Decode) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	n := transform.Blocks(len(in), 4, end)
	if !end {
		// A padded quad is only valid as the last one, so it waits for end.
		if i := bytes.IndexByte(in[:n], '='); i >= 0 {
			n = i / 4 * 4
		}
	}
	if n == 0 {
		return transform.Result{State: st}, nil
	}

	chunk := bytes.TrimRight(in[:n], "=")
	if len(chunk)%4 == 1 {
		return transform.Result{State: st}, transform.Validation("base64-decode", "truncated quad", nil)
	}
	out := make([]byte, base64.RawStdEncoding.DecodedLen(len(chunk)))
	w, err := base64.RawStdEncoding.Decode(out, chunk)
	if err != nil {
		return transform.Result{State: st}, transform.Validation("base64-decode", "decode failed", err)
	}
	return transform.Result{Output: out[:w], Consumed: n, State: st}, nil
}

// Base64Encode encodes to padded standard base64, three bytes at a time.
type Base64Encode struct{}

func (Base64Encode) PreferredChunkSize() int { return 3 }

func (Base64Encode) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	n := transform.Blocks(len(in), 3, end)
	out := make([]byte, base64.StdEncoding.EncodedLen(n))
	base64.StdEncoding.Encode(out, in[:n])
	return transform.Result{Output: out, Consumed: n, State: st}, nil
}
