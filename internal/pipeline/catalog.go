package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"bytepipe/codec"
	"bytepipe/internal/spec"
	"bytepipe/stream"
	"bytepipe/transform"
)

// ErrUnknownPipeline is returned for names the catalog does not define.
var ErrUnknownPipeline = errors.New("pipeline: unknown pipeline")

// Catalog holds the named pipelines of a spec file. Units are built fresh for
// every run so no unit state is shared between streams.
type Catalog struct {
	specs map[string]spec.PipelineSpec
}

// NewCatalog builds every pipeline once to reject unknown unit types and bad
// parameters up front.
func NewCatalog(specs []spec.PipelineSpec) (*Catalog, error) {
	c := &Catalog{specs: make(map[string]spec.PipelineSpec, len(specs))}
	for _, p := range specs {
		if _, dup := c.specs[p.Name]; dup {
			return nil, fmt.Errorf("pipeline %q defined twice", p.Name)
		}
		c.specs[p.Name] = p
		if _, err := c.NewUnit(p.Name); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Names lists the pipelines in lexical order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.specs))
	for name := range c.specs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewUnit returns a new unit chain for the named pipeline: the unit itself
// for single-unit pipelines, a compound otherwise.
func (c *Catalog) NewUnit(name string) (transform.Unit, error) {
	p, ok := c.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPipeline, name)
	}
	units := make([]transform.Unit, 0, len(p.Units))
	for i, us := range p.Units {
		u, err := codec.New(us.Type, us.Params)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: unit %d: %w", name, i, err)
		}
		units = append(units, u)
	}
	if len(units) == 1 {
		return units[0], nil
	}
	return transform.NewCompound(units...)
}

// Options returns the stream options configured for the named pipeline.
func (c *Catalog) Options(name string) []stream.Option {
	return []stream.Option{stream.WithName(name), stream.WithThreshold(c.specs[name].Threshold)}
}

// NewStream returns an open stream over a new unit chain for the named
// pipeline, using its configured threshold. opts are applied last.
func (c *Catalog) NewStream(name string, opts ...stream.Option) (*stream.Stream, error) {
	u, err := c.NewUnit(name)
	if err != nil {
		return nil, err
	}
	return stream.New(u, append(c.Options(name), opts...)...), nil
}
