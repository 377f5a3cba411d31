package testkit

import (
	"bytes"
	"errors"
	"testing"

	"xdao.co/macaroon/store"
)

// NewStore constructs a fresh, empty root key store for a test.
// The returned store MUST be isolated from other tests.
type NewStore func(t *testing.T) store.RootKeyStore

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("RootKeyStable", func(t *testing.T) {
		s := newStore(t)

		key1, id1, err := s.RootKey()
		if err != nil {
			t.Fatalf("RootKey(1) failed: %v", err)
		}
		key2, id2, err := s.RootKey()
		if err != nil {
			t.Fatalf("RootKey(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("RootKey id not stable: %q vs %q", id1, id2)
		}
		if !bytes.Equal(key1, key2) {
			t.Fatalf("RootKey key not stable for id %q", id1)
		}
	})

	t.Run("RootKeyShape", func(t *testing.T) {
		s := newStore(t)

		key, id, err := s.RootKey()
		if err != nil {
			t.Fatalf("RootKey failed: %v", err)
		}
		if len(key) != store.KeySize {
			t.Fatalf("RootKey length: got %d want %d", len(key), store.KeySize)
		}
		if err := store.CheckID(id); err != nil {
			t.Fatalf("RootKey id %q fails CheckID: %v", id, err)
		}
	})

	t.Run("GetRoundTrip", func(t *testing.T) {
		s := newStore(t)

		key, id, err := s.RootKey()
		if err != nil {
			t.Fatalf("RootKey failed: %v", err)
		}
		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, key) {
			t.Fatalf("Get bytes mismatch for id %q", id)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get("deadbeefdeadbeefdeadbeefdeadbeef")
		if !store.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("RejectInvalidID", func(t *testing.T) {
		s := newStore(t)

		for _, id := range []string{"", "../escape", "a/b", "spaced id"} {
			if _, err := s.Get(id); !errors.Is(err, store.ErrInvalidID) {
				t.Fatalf("Get(%q): got err=%v want ErrInvalidID", id, err)
			}
		}
	})

	t.Run("RotateKeepsHistory", func(t *testing.T) {
		s := newStore(t)
		r, ok := s.(store.Rotator)
		if !ok {
			t.Skip("store does not rotate")
		}

		oldKey, oldID, err := s.RootKey()
		if err != nil {
			t.Fatalf("RootKey failed: %v", err)
		}
		newKey, newID, err := r.Rotate()
		if err != nil {
			t.Fatalf("Rotate failed: %v", err)
		}
		if newID == oldID {
			t.Fatalf("Rotate did not change the current id")
		}
		if bytes.Equal(newKey, oldKey) {
			t.Fatalf("Rotate did not change the current key")
		}

		gotKey, gotID, err := s.RootKey()
		if err != nil {
			t.Fatalf("RootKey after Rotate failed: %v", err)
		}
		if gotID != newID || !bytes.Equal(gotKey, newKey) {
			t.Fatalf("RootKey after Rotate: got id %q want %q", gotID, newID)
		}

		old, err := s.Get(oldID)
		if err != nil {
			t.Fatalf("Get(old id) after Rotate failed: %v", err)
		}
		if !bytes.Equal(old, oldKey) {
			t.Fatalf("Get(old id) bytes mismatch after Rotate")
		}
	})
}
