package codec

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/cespare/xxhash/v2"

	"bytepipe/transform"
)

// Digest hashes the whole stream and emits the lowercase hex digest once, at
// end of stream. It consumes every byte it is offered.
type Digest struct {
	name    string
	newHash func() hash.Hash
}

type digestState struct {
	h    hash.Hash
	done bool
}

// NewDigest returns a digest unit backed by newHash.
func NewDigest(name string, newHash func() hash.Hash) *Digest {
	return &Digest{name: name, newHash: newHash}
}

// MD5 hashes with MD5.
func MD5() *Digest { return NewDigest("md5", md5.New) }

// SHA256 hashes with SHA-256.
func SHA256() *Digest { return NewDigest("sha256", sha256.New) }

// XXHash64 hashes with xxHash64, seed 0.
func XXHash64() *Digest {
	return NewDigest("xxhash64", func() hash.Hash { return xxhash.New() })
}

// Name returns the hash name.
func (d *Digest) Name() string { return d.name }

func (d *Digest) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	ds, _ := st.(*digestState)
	if ds == nil {
		ds = &digestState{h: d.newHash()}
	}
	if ds.done {
		// A repeated end call with nothing new is harmless; more input is not.
		if len(in) > 0 {
			return transform.Result{State: ds}, &transform.ProtocolViolationError{
				Available: len(in),
				Reason:    d.name + ": input after digest was finalized",
			}
		}
		return transform.Result{State: ds}, nil
	}

	ds.h.Write(in)
	if !end {
		return transform.Result{Consumed: len(in), State: ds}, nil
	}
	ds.done = true
	sum := ds.h.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return transform.Result{Output: out, Consumed: len(in), State: ds}, nil
}
