package transform

import "errors"

// Compound chains units so that each one's output feeds the next.
//
// The first stage is fed the caller's input directly and only its consumed
// count is reported; every later stage has a pending buffer owned by the run
// state, filled with the previous stage's output and drained as the stage
// consumes it. A stage is not invoked until its pending buffer reaches its
// preferred chunk size, unless the stream is ending.
//
// State is kept per pipeline position, so the same unit value may appear more
// than once in a chain.
type Compound struct {
	stages []Unit
	sizes  []int
}

type stageState struct {
	pending []byte
	state   State
}

type compoundState struct {
	stages []stageState
}

// NewCompound returns a compound unit applying units in order.
func NewCompound(units ...Unit) (*Compound, error) {
	if len(units) == 0 {
		return nil, errors.New("transform: compound needs at least one unit")
	}
	c := &Compound{
		stages: make([]Unit, len(units)),
		sizes:  make([]int, len(units)),
	}
	for i, u := range units {
		if u == nil {
			return nil, errors.New("transform: compound stage is nil")
		}
		c.stages[i] = u
		c.sizes[i] = PreferredChunkSize(u)
	}
	return c, nil
}

// Stages returns the chained units in order.
func (c *Compound) Stages() []Unit {
	return append([]Unit(nil), c.stages...)
}

// PreferredChunkSize is the first stage's preference; later stages batch
// internally.
func (c *Compound) PreferredChunkSize() int { return c.sizes[0] }

// Pending reports how many bytes are waiting in front of each stage of a run.
// Stage 0 is always zero since it has no buffer of its own.
func (c *Compound) Pending(st State) []int {
	out := make([]int, len(c.stages))
	if cs, ok := st.(*compoundState); ok {
		for i := range cs.stages {
			out[i] = len(cs.stages[i].pending)
		}
	}
	return out
}

func (c *Compound) newState() *compoundState {
	return &compoundState{stages: make([]stageState, len(c.stages))}
}

// Transform runs one pass of in through every stage.
func (c *Compound) Transform(in []byte, st State, end bool) (Result, error) {
	cs, ok := st.(*compoundState)
	if !ok || cs == nil {
		cs = c.newState()
	}

	first, err := c.stages[0].Transform(in, cs.stages[0].state, end)
	cs.stages[0].state = first.State
	if verr := checkConsumed(0, first.Consumed, len(in)); verr != nil {
		return Result{State: cs}, verr
	}
	consumed := first.Consumed
	out := first.Output

	for i := 1; i < len(c.stages); i++ {
		if err != nil {
			// Bytes already pending in later stages are dropped with the run.
			return Result{Output: out, Consumed: consumed, State: cs}, err
		}

		sc := &cs.stages[i]
		sc.pending = append(sc.pending, out...)
		if !end && len(sc.pending) < c.sizes[i] {
			return Result{Consumed: consumed, State: cs}, nil
		}

		n := len(sc.pending)
		r, serr := c.stages[i].Transform(Capped(sc.pending, n), sc.state, end)
		sc.state = r.State
		if verr := checkConsumed(i, r.Consumed, n); verr != nil {
			return Result{Consumed: consumed, State: cs}, verr
		}
		if end && serr == nil && r.Consumed < n {
			return Result{Output: r.Output, Consumed: consumed, State: cs}, &ProtocolViolationError{
				Stage:     i,
				Consumed:  r.Consumed,
				Available: n,
				Reason:    "stage left input unconsumed at end of stream",
			}
		}
		if r.Consumed == n {
			sc.pending = nil
		} else {
			sc.pending = sc.pending[r.Consumed:]
		}
		out, err = r.Output, serr
	}

	return Result{Output: out, Consumed: consumed, State: cs}, err
}
