package stream

// Event identifies a notification kind.
type Event int

const (
	EventData Event = iota
	EventError
	EventEnd
	EventClose
	EventSuccess
)

func (e Event) String() string {
	switch e {
	case EventData:
		return "data"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	case EventClose:
		return "close"
	case EventSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Handle identifies a registered observer so it can be removed with Off.
type Handle struct {
	event Event
	id    uint64
}

// Event reports which notification the handle is registered for.
func (h Handle) Event() Event { return h.event }

type entry[F any] struct {
	id uint64
	fn F
}

// registry keeps observers of one event in registration order.
type registry[F any] struct {
	entries []entry[F]
}

func (r *registry[F]) add(id uint64, fn F) {
	r.entries = append(r.entries, entry[F]{id: id, fn: fn})
}

func (r *registry[F]) remove(id uint64) bool {
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot lets observers deregister themselves while being notified.
func (r *registry[F]) snapshot() []F {
	out := make([]F, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.fn
	}
	return out
}

type observers struct {
	next    uint64
	data    registry[func([]byte)]
	errs    registry[func(error)]
	signals [EventSuccess + 1]registry[func()]
}

func (o *observers) handle(ev Event) Handle {
	o.next++
	return Handle{event: ev, id: o.next}
}

func (o *observers) off(h Handle) bool {
	switch h.event {
	case EventData:
		return o.data.remove(h.id)
	case EventError:
		return o.errs.remove(h.id)
	case EventEnd, EventClose, EventSuccess:
		return o.signals[h.event].remove(h.id)
	}
	return false
}

func (o *observers) emitData(p []byte) {
	for _, fn := range o.data.snapshot() {
		fn(p)
	}
}

func (o *observers) emitError(err error) {
	for _, fn := range o.errs.snapshot() {
		fn(err)
	}
}

func (o *observers) emit(ev Event) {
	for _, fn := range o.signals[ev].snapshot() {
		fn()
	}
}
