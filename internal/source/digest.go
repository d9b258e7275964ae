package source

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a fixed 256 bit content hash (same shape as File.Hash).
type Digest [32]byte

// Combine hashes content followed by deps: H(content || dep1 || dep2 ...).
// Callers must pass deps in a deterministic order.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// HashString digests an arbitrary string, e.g. a serialized config.
func HashString(s string) Digest {
	return sha256.Sum256([]byte(s))
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, enough for log lines.
func (d Digest) Short() string {
	return d.String()[:12]
}
