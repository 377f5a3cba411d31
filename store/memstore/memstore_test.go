package memstore

import (
	"testing"

	"xdao.co/macaroon/store"
	"xdao.co/macaroon/store/testkit"
)

func TestMemstoreConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) store.RootKeyStore {
		return New()
	})
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	key, id, err := s.RootKey()
	if err != nil {
		t.Fatalf("RootKey failed: %v", err)
	}
	key[0] ^= 0xFF

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got[0] == key[0] {
		t.Fatalf("mutating a returned key leaked into the store")
	}
}
