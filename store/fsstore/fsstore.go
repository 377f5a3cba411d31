package fsstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"xdao.co/macaroon/internal/codec"
	"xdao.co/macaroon/store"
)

// Store is a filesystem-backed root key store.
//
// Each key is one immutable CBOR record under <root>/keys/<id>.cbor, written
// with O_EXCL and mode 0600 (the records hold secrets). The only mutable file
// is <root>/current, which names the current minting key.
type Store struct {
	mu   sync.Mutex
	root string
}

type keyRecord struct {
	ID        string `cbor:"id"`
	Key       []byte `cbor:"key"`
	CreatedAt int64  `cbor:"created_at"`
}

// New constructs a root key store rooted at root. The directory will be
// created if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("fsstore: root directory is required")
	}
	if err := os.MkdirAll(filepath.Join(root, "keys"), 0o700); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Get(id string) ([]byte, error) {
	if err := store.CheckID(id); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.keyPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var rec keyRecord
	if err := codec.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("fsstore: key %q: %w", id, store.ErrCorrupted)
	}
	if rec.ID != id || len(rec.Key) != store.KeySize {
		return nil, fmt.Errorf("fsstore: key %q: %w", id, store.ErrCorrupted)
	}
	return rec.Key, nil
}

func (s *Store) RootKey() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.markerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return s.rotateLocked()
		}
		return nil, "", err
	}
	id := strings.TrimSpace(string(raw))
	if err := store.CheckID(id); err != nil {
		return nil, "", fmt.Errorf("fsstore: current marker: %w", store.ErrCorrupted)
	}
	key, err := s.Get(id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, "", fmt.Errorf("fsstore: current marker names missing key %q: %w", id, store.ErrCorrupted)
		}
		return nil, "", err
	}
	return key, id, nil
}

// Rotate installs a fresh current key. Records written earlier stay on disk
// so outstanding macaroons remain verifiable.
func (s *Store) Rotate() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotateLocked()
}

func (s *Store) rotateLocked() ([]byte, string, error) {
	key, err := store.NewKey()
	if err != nil {
		return nil, "", err
	}
	id, err := store.NewID()
	if err != nil {
		return nil, "", err
	}
	raw, err := codec.Marshal(keyRecord{ID: id, Key: key, CreatedAt: time.Now().Unix()})
	if err != nil {
		return nil, "", err
	}
	if err := writeExclusive(s.keyPath(id), raw); err != nil {
		return nil, "", err
	}
	if err := os.WriteFile(s.markerPath(), []byte(id+"\n"), 0o600); err != nil {
		return nil, "", err
	}
	return key, id, nil
}

func writeExclusive(path string, raw []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(raw); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func (s *Store) keyPath(id string) string {
	return filepath.Join(s.root, "keys", id+".cbor")
}

func (s *Store) markerPath() string {
	return filepath.Join(s.root, "current")
}
