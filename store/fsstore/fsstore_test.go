package fsstore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"xdao.co/macaroon/store"
	"xdao.co/macaroon/store/testkit"
)

func TestFsstoreConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) store.RootKeyStore {
		s, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return s
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := New(dir)
	if err != nil {
		t.Fatalf("New(1) failed: %v", err)
	}
	key1, id1, err := s1.RootKey()
	if err != nil {
		t.Fatalf("RootKey failed: %v", err)
	}

	s2, err := New(dir)
	if err != nil {
		t.Fatalf("New(2) failed: %v", err)
	}
	key2, id2, err := s2.RootKey()
	if err != nil {
		t.Fatalf("RootKey after reopen failed: %v", err)
	}
	if id2 != id1 || !bytes.Equal(key2, key1) {
		t.Fatalf("reopened store returned a different current key")
	}
}

func TestFileModes(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, id, err := s.RootKey()
	if err != nil {
		t.Fatalf("RootKey failed: %v", err)
	}

	checks := []struct {
		path string
		want os.FileMode
	}{
		{filepath.Join(dir, "keys"), 0o700 | os.ModeDir},
		{filepath.Join(dir, "keys", id+".cbor"), 0o600},
		{filepath.Join(dir, "current"), 0o600},
	}
	for _, c := range checks {
		info, err := os.Stat(c.path)
		if err != nil {
			t.Fatalf("Stat(%s) failed: %v", c.path, err)
		}
		if info.Mode() != c.want {
			t.Fatalf("%s mode: got %v want %v", c.path, info.Mode(), c.want)
		}
	}
}

func TestCorruptRecordRejected(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, id, err := s.RootKey()
	if err != nil {
		t.Fatalf("RootKey failed: %v", err)
	}

	path := filepath.Join(dir, "keys", id+".cbor")
	if err := os.WriteFile(path, []byte("not cbor"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := s.Get(id); !errors.Is(err, store.ErrCorrupted) {
		t.Fatalf("Get of corrupt record: got err=%v want ErrCorrupted", err)
	}
}

func TestDanglingCurrentMarker(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	marker := filepath.Join(dir, "current")
	if err := os.WriteFile(marker, []byte("deadbeefdeadbeefdeadbeefdeadbeef\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, _, err := s.RootKey(); !errors.Is(err, store.ErrCorrupted) {
		t.Fatalf("RootKey with dangling marker: got err=%v want ErrCorrupted", err)
	}
}
