package codec

import (
	"bytes"
	"errors"

	"bytepipe/transform"
)

// Replace substitutes every occurrence of Old with New. Until end of stream
// it holds back the last len(Old)-1 bytes, since they may start a match that
// completes in the next write.
type Replace struct {
	Old []byte
	New []byte
}

func (r Replace) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	if len(r.Old) == 0 {
		return transform.Result{Output: bytes.Clone(in), Consumed: len(in), State: st}, nil
	}
	var out bytes.Buffer
	pos := 0
	for {
		i := bytes.Index(in[pos:], r.Old)
		if i < 0 {
			break
		}
		out.Write(in[pos : pos+i])
		out.Write(r.New)
		pos += i + len(r.Old)
	}

	keep := 0
	if !end {
		keep = min(len(r.Old)-1, len(in)-pos)
	}
	stop := len(in) - keep
	out.Write(in[pos:stop])
	return transform.Result{Output: out.Bytes(), Consumed: stop, State: st}, nil
}

func newReplaceFromParams(params map[string]string) (transform.Unit, error) {
	old := params["old"]
	if old == "" {
		return nil, errors.New("old must not be empty")
	}
	return Replace{Old: []byte(old), New: []byte(params["new"])}, nil
}
