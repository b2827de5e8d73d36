package codec

import (
	"fmt"
	"sort"
	"sync"

	"bytepipe/transform"
)

// Factory builds a fresh unit from string parameters, typically taken from a
// pipeline definition.
type Factory func(params map[string]string) (transform.Unit, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register makes a unit available under name, replacing any previous entry.
func Register(name string, f Factory) {
	mu.Lock()
	registry[name] = f
	mu.Unlock()
}

// New builds the unit registered under name.
func New(name string, params map[string]string) (transform.Unit, error) {
	mu.RLock()
	f, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("codec: unknown unit %q", name)
	}
	u, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("codec: %s: %w", name, err)
	}
	return u, nil
}

// Names lists the registered unit names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func stateless(u transform.Unit) Factory {
	return func(map[string]string) (transform.Unit, error) { return u, nil }
}

func init() {
	Register("rot13", stateless(Rot13{}))
	Register("base64-decode", stateless(Base64Decode{}))
	Register("base64-encode", stateless(Base64Encode{}))
	Register("hex-decode", stateless(HexDecode{}))
	Register("hex-encode", stateless(HexEncode{}))
	Register("md5", stateless(MD5()))
	Register("sha256", stateless(SHA256()))
	Register("xxhash64", stateless(XXHash64()))
	Register("gzip", newGzipFromParams)
	Register("chacha20", newChaCha20FromParams)
	Register("replace", newReplaceFromParams)
}
