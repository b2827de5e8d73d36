package filter

import (
	"errors"
	"io"

	"bytepipe/stream"
	"bytepipe/transform"
)

type writer struct {
	w   io.Writer
	f   *Filter
	err error
}

// NewWriter returns a WriteCloser that transforms everything written to it
// with u and forwards the output to w. Close flushes the unit; it does not
// close w.
func NewWriter(w io.Writer, u transform.Unit, opts ...stream.Option) io.WriteCloser {
	return &writer{w: w, f: New(func() transform.Unit { return u }, opts...)}
}

func (wr *writer) Write(p []byte) (int, error) {
	if wr.err != nil {
		return 0, wr.err
	}
	out, _, status := wr.f.Filter(p, false)
	if err := wr.pass(out, status); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (wr *writer) Close() error {
	if wr.err != nil {
		if errors.Is(wr.err, transform.ErrStreamClosed) {
			return nil
		}
		return wr.err
	}
	out, _, status := wr.f.Filter(nil, true)
	if err := wr.pass(out, status); err != nil {
		return err
	}
	wr.err = transform.ErrStreamClosed
	return nil
}

func (wr *writer) pass(out [][]byte, status Status) error {
	for _, p := range out {
		if _, err := wr.w.Write(p); err != nil {
			wr.err = err
			return err
		}
	}
	if status == FatalError {
		wr.err = wr.f.Err()
		return wr.err
	}
	return nil
}

type reader struct {
	r       io.Reader
	f       *Filter
	scratch []byte
	out     [][]byte
	err     error
}

// NewReader returns a Reader that yields the transform of r's contents
// through u. Read errors from r other than io.EOF are passed through.
func NewReader(r io.Reader, u transform.Unit, opts ...stream.Option) io.Reader {
	f := New(func() transform.Unit { return u }, opts...)
	return &reader{r: r, f: f, scratch: make([]byte, max(f.Threshold(), 512))}
}

func (rd *reader) Read(p []byte) (int, error) {
	for {
		if len(rd.out) > 0 {
			n := copy(p, rd.out[0])
			if n == len(rd.out[0]) {
				rd.out = rd.out[1:]
			} else {
				rd.out[0] = rd.out[0][n:]
			}
			return n, nil
		}
		if rd.err != nil {
			return 0, rd.err
		}

		n, err := rd.r.Read(rd.scratch)
		closing := errors.Is(err, io.EOF)
		out, _, status := rd.f.Filter(rd.scratch[:n], closing)
		rd.out = out
		switch {
		case status == FatalError:
			rd.err = rd.f.Err()
		case closing:
			rd.err = io.EOF
		case err != nil:
			rd.err = err
		}
	}
}
