package store

// RootKeyStore supplies the root keys a minting service signs macaroons with.
//
// Contract:
// - Key ids MUST be opaque, filename-safe strings (see CheckID).
// - Stored keys MUST be immutable: once an id is bound to a key, Get MUST
//   return that exact key for the lifetime of the store.
// - RootKey MUST return a usable minting key, creating one when the store
//   is empty, and MUST keep returning the same (key, id) pair until the
//   current key is rotated.
// - Get MUST return ErrNotFound when the id is absent.
type RootKeyStore interface {
	Get(id string) ([]byte, error)
	RootKey() (key []byte, id string, err error)
}

// Rotator is implemented by stores that can retire the current minting key.
//
// Rotate installs a fresh current key and returns it. Keys issued before the
// rotation remain retrievable via Get so outstanding macaroons stay
// verifiable.
type Rotator interface {
	Rotate() (key []byte, id string, err error)
}
