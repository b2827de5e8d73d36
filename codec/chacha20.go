package codec

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"bytepipe/transform"
)

// ChaCha20 XORs the stream with the ChaCha20 key stream. Encryption and
// decryption are the same operation. Every run starts from block counter 0,
// so a key and nonce pair must never be reused for different plaintexts.
type ChaCha20 struct {
	key   []byte
	nonce []byte
}

// NewChaCha20 checks key and nonce sizes up front so Transform cannot fail.
func NewChaCha20(key, nonce []byte) (*ChaCha20, error) {
	if len(key) != chacha20.KeySize {
		return nil, fmt.Errorf("chacha20: key must be %d bytes, got %d", chacha20.KeySize, len(key))
	}
	if len(nonce) != chacha20.NonceSize && len(nonce) != chacha20.NonceSizeX {
		return nil, fmt.Errorf("chacha20: nonce must be %d or %d bytes, got %d",
			chacha20.NonceSize, chacha20.NonceSizeX, len(nonce))
	}
	return &ChaCha20{
		key:   append([]byte(nil), key...),
		nonce: append([]byte(nil), nonce...),
	}, nil
}

func (c *ChaCha20) Transform(in []byte, st transform.State, end bool) (transform.Result, error) {
	cipher, _ := st.(*chacha20.Cipher)
	if cipher == nil {
		var err error
		if cipher, err = chacha20.NewUnauthenticatedCipher(c.key, c.nonce); err != nil {
			return transform.Result{}, fmt.Errorf("chacha20: %w", err)
		}
	}
	out := make([]byte, len(in))
	cipher.XORKeyStream(out, in)
	return transform.Result{Output: out, Consumed: len(in), State: cipher}, nil
}

func newChaCha20FromParams(params map[string]string) (transform.Unit, error) {
	key, err := hex.DecodeString(params["key"])
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	nonce, err := hex.DecodeString(params["nonce"])
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return NewChaCha20(key, nonce)
}
