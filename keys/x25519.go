package keys

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/curve25519"
)

// SeedSize is the length of an X25519 private scalar.
const SeedSize = curve25519.ScalarSize

// publicPrefix tags rendered public keys with their algorithm.
const publicPrefix = "x25519:"

// KeyPair is an X25519 key pair. The private scalar doubles as the
// seed: persisting it and re-deriving gives back the same pair.
type KeyPair struct {
	priv [SeedSize]byte
	pub  [SeedSize]byte
}

// Generate creates a key pair from a randomness source. A nil reader
// uses crypto/rand.
func Generate(random io.Reader) (*KeyPair, error) {
	if random == nil {
		random = rand.Reader
	}
	var seed [SeedSize]byte
	if _, err := io.ReadFull(random, seed[:]); err != nil {
		return nil, fmt.Errorf("reading key seed: %w", err)
	}
	return FromSeed(seed[:])
}

// FromSeed builds the key pair whose private scalar is seed.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	kp := &KeyPair{}
	copy(kp.priv[:], seed)
	pub, err := curve25519.X25519(kp.priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("deriving public key: %w", err)
	}
	copy(kp.pub[:], pub)
	return kp, nil
}

// Public returns the public key in the pointer form the NaCl primitives
// take.
func (kp *KeyPair) Public() *[SeedSize]byte {
	pub := kp.pub
	return &pub
}

// Private returns the private scalar in the pointer form the NaCl
// primitives take.
func (kp *KeyPair) Private() *[SeedSize]byte {
	priv := kp.priv
	return &priv
}

// Seed returns the private scalar for persistence.
func (kp *KeyPair) Seed() []byte {
	seed := make([]byte, SeedSize)
	copy(seed, kp.priv[:])
	return seed
}

// PublicString renders the public key as "x25519:" + base64, the form
// a discharge service advertises.
func (kp *KeyPair) PublicString() string {
	return PublicKeyString(kp.Public())
}

// PublicKeyString encodes a raw public key into the advertised string
// form.
func PublicKeyString(pub *[SeedSize]byte) string {
	return publicPrefix + base64.StdEncoding.EncodeToString(pub[:])
}

// ParsePublicKey reads an advertised "x25519:" + base64 public key.
func ParsePublicKey(s string) (*[SeedSize]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), publicPrefix)
	if !ok {
		return nil, fmt.Errorf("public key %q does not start with %q", s, publicPrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, fmt.Errorf("public key base64: %w", err)
	}
	if len(raw) != SeedSize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", SeedSize, len(raw))
	}
	var pub [SeedSize]byte
	copy(pub[:], raw)
	return &pub, nil
}
