package store

import "errors"

var (
	ErrNotFound  = errors.New("store: root key not found")
	ErrInvalidID = errors.New("store: invalid root key id")
	ErrCorrupted = errors.New("store: corrupted root key record")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
