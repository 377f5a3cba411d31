package memstore

import (
	"sync"

	"xdao.co/macaroon/store"
)

// Store keeps root keys in process memory.
//
// Keys live for the lifetime of the process, so minted macaroons stop
// verifying on restart. Intended for tests and single-run tooling; daemons
// should use a persistent backend.
type Store struct {
	mu      sync.RWMutex
	keys    map[string][]byte
	current string
}

func New() *Store {
	return &Store{keys: map[string][]byte{}}
}

func (s *Store) Get(id string) ([]byte, error) {
	if err := store.CheckID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), key...), nil
}

func (s *Store) RootKey() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return s.rotateLocked()
	}
	return append([]byte(nil), s.keys[s.current]...), s.current, nil
}

// Rotate installs a fresh current key. Keys issued earlier remain
// retrievable via Get.
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
	s.keys[id] = append([]byte(nil), key...)
	s.current = id
	return key, id, nil
}
