package keys

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// DeriveServiceSeed deterministically derives a service-specific X25519
// seed from a root seed, so one backed-up root seed can regenerate the
// key of every discharge service.
func DeriveServiceSeed(rootSeed []byte, service string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckService(service); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("xdao-macaroon-kms-lite-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("service:"))
	_, _ = h.Write([]byte(service))
	sum := h.Sum(nil)
	if len(sum) < SeedSize {
		return nil, errors.New("kdf output too short")
	}
	out := make([]byte, SeedSize)
	copy(out, sum[:SeedSize])
	return out, nil
}
