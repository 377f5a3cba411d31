package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// KeySize is the length in bytes of every root key a store hands out.
const KeySize = 32

const maxIDLen = 128

// NewKey generates a fresh random root key.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("store: generate root key: %w", err)
	}
	return key, nil
}

// NewID generates a fresh random key id (32 lowercase hex characters).
func NewID() (string, error) {
	var raw [16]byte
	if _, err := io.ReadFull(rand.Reader, raw[:]); err != nil {
		return "", fmt.Errorf("store: generate key id: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

// CheckID validates a root key id.
//
// Ids are restricted to a filename-safe charset so backends can use them
// directly as path components.
func CheckID(id string) error {
	if id == "" || len(id) > maxIDLen {
		return ErrInvalidID
	}
	for _, r := range id {
		ok := (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_'
		if !ok {
			return ErrInvalidID
		}
	}
	return nil
}
