// Package stream pushes data written in arbitrary increments through a
// transform.Unit and notifies observers of the output.
//
// Input is buffered until the batching threshold is reached; the unit is then
// offered the largest multiple of the threshold that is available. End
// flushes everything that is left. A stream emits data events for output,
// at most one error, and end and close exactly once each. Success follows
// close only when the input was fully transformed without error.
//
//	s := stream.New(codec.Base64Decode{}, stream.WithThreshold(6))
//	s.OnData(func(p []byte) { fmt.Printf("%q\n", p) })
//	s.Write([]byte("Zm9vYmFy")) // "foo"
//	s.End(nil)                  // "bar"
package stream
