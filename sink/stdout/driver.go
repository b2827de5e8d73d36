package stdout

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	pb "bytepipe/api/proto/v1"
	"bytepipe/internal/spec"
	"bytepipe/sink"
)

/* ────────── driver ────────── */
type driver struct {
	cfg spec.StdoutSink

	mu sync.Mutex
	w  *bufio.Writer
}

// New returns a stdout-style sink writing to w.
func New(w io.Writer) sink.Adapter { return &driver{w: bufio.NewWriter(w)} }

/* ────────── sink.Adapter ────────── */
func (d *driver) Configure(raw any) error {
	c, ok := raw.(spec.StdoutSink)
	if !ok {
		return fmt.Errorf("stdout-sink: expected spec.StdoutSink, got %T", raw)
	}
	d.cfg = c
	return nil
}

// Push writes the frame value followed by the configured separator and
// flushes, so output shows up as soon as the pipeline emits it.
func (d *driver) Push(f *pb.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.w.Write(f.GetValue()); err != nil {
		return err
	}
	if d.cfg.Separator != "" {
		if _, err := d.w.WriteString(d.cfg.Separator); err != nil {
			return err
		}
	}
	return d.w.Flush()
}

func (d *driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.w.Flush()
}

/* ────────── auto-register ────────── */
func init() {
	sink.Register("stdout", func() sink.Adapter { return New(os.Stdout) })
}
