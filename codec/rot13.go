package codec

import "bytepipe/transform"

// Rot13 rotates ASCII letters by 13 places and leaves other bytes alone.
type Rot13 struct{}

func (Rot13) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	out := make([]byte, len(in))
	for i, b := range in {
		switch {
		case b >= 'a' && b <= 'z':
			out[i] = 'a' + (b-'a'+13)%26
		case b >= 'A' && b <= 'Z':
			out[i] = 'A' + (b-'A'+13)%26
		default:
			out[i] = b
		}
	}
	return transform.Result{Output: out, Consumed: len(in), State: st}, nil
}
