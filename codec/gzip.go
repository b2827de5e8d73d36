package codec

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"bytepipe/transform"
)

// Gzip compresses the stream into a single gzip member. Compressed bytes are
// emitted as the compressor releases them; the trailer is written at end of
// stream.
type Gzip struct {
	// Level is a compress/flate level. Zero means gzip.DefaultCompression
	// unless the unit was built with NewGzip(gzip.NoCompression).
	Level int

	levelSet bool
}

// NewGzip returns a gzip unit compressing at level, which may be
// gzip.NoCompression.
func NewGzip(level int) (Gzip, error) {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return Gzip{}, fmt.Errorf("level %d out of range", level)
	}
	return Gzip{Level: level, levelSet: true}, nil
}

type gzipState struct {
	buf  *bytes.Buffer
	zw   *gzip.Writer
	done bool
}

func (Gzip) PreferredChunkSize() int { return 32 << 10 }

func (g Gzip) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	gs, _ := st.(*gzipState)
	if gs == nil {
		level := gzip.DefaultCompression
		if g.levelSet || g.Level != 0 {
			level = g.Level
		}
		buf := new(bytes.Buffer)
		zw, err := gzip.NewWriterLevel(buf, level)
		if err != nil {
			return transform.Result{}, transform.Validation("gzip", "bad level", err)
		}
		gs = &gzipState{buf: buf, zw: zw}
	}
	if gs.done {
		if len(in) > 0 {
			return transform.Result{State: gs}, &transform.ProtocolViolationError{
				Available: len(in),
				Reason:    "gzip: input after stream was finalized",
			}
		}
		return transform.Result{State: gs}, nil
	}

	if _, err := gs.zw.Write(in); err != nil {
		return transform.Result{State: gs}, fmt.Errorf("gzip: write: %w", err)
	}
	if end {
		if err := gs.zw.Close(); err != nil {
			return transform.Result{Consumed: len(in), State: gs}, fmt.Errorf("gzip: close: %w", err)
		}
		gs.done = true
	}

	var out []byte
	if gs.buf.Len() > 0 {
		out = bytes.Clone(gs.buf.Bytes())
		gs.buf.Reset()
	}
	return transform.Result{Output: out, Consumed: len(in), State: gs}, nil
}

func newGzipFromParams(params map[string]string) (transform.Unit, error) {
	v, ok := params["level"]
	if !ok {
		return Gzip{}, nil
	}
	level, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}
	return NewGzip(level)
}
