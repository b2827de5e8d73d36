// Package transform defines the incremental byte transform contract and the
// compound unit that chains several transforms into one.
//
// A Unit is offered whatever input the caller has accumulated and reports how
// much of it was consumed. Unconsumed bytes stay with the caller and are
// offered again, together with newer input, on the next call. Units keep their
// own progress in an opaque State value that the caller threads through every
// call, so the same unit value can serve any number of independent runs.
//
// When end is true the caller has committed to sending no more input and the
// unit should consume everything it is given. A unit may see several calls
// with end set to true if an earlier one left input behind, so end-of-stream
// handling must tolerate repetition.
//
//	u, err := transform.NewCompound(codec.Base64Decode{}, codec.Rot13{})
//	res, err := u.Transform([]byte("c2JiYm5l"), nil, true)
//	// res.Output == "foobar"
package transform
