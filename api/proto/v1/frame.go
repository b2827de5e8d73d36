package pb

import "time"

// Frame is one record moving between a source, a pipeline and its sinks.
type Frame struct {
	Key     []byte
	Value   []byte
	Headers map[string][]byte
	Ts      time.Time
}

func (f *Frame) GetValue() []byte {
	if f == nil {
		return nil
	}
	return f.Value
}
