package grpcstore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/macaroon/store"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return store.ErrNotFound
	case codes.InvalidArgument:
		// Server uses InvalidArgument for malformed key ids.
		return store.ErrInvalidID
	case codes.DataLoss:
		// Server uses DataLoss for records that fail integrity checks.
		return store.ErrCorrupted
	default:
		// Best-effort: if the server sent a known store error message, preserve it.
		switch st.Message() {
		case store.ErrNotFound.Error():
			return store.ErrNotFound
		case store.ErrInvalidID.Error():
			return store.ErrInvalidID
		case store.ErrCorrupted.Error():
			return store.ErrCorrupted
		default:
			return err
		}
	}
}
