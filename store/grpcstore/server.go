package grpcstore

import (
	"context"
	"encoding/base64"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/macaroon/store"
)

// Server exposes a store.RootKeyStore over the RootKeys gRPC service.
type Server struct {
	UnimplementedRootKeysServer
	Store store.RootKeyStore
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id := in.GetValue()
	if err := store.CheckID(id); err != nil {
		return nil, status.Error(codes.InvalidArgument, store.ErrInvalidID.Error())
	}
	key, err := s.Store.Get(id)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(key), nil
}

func (s *Server) Current(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
	_ = ctx
	_ = in
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	key, id, err := s.Store.RootKey()
	if err != nil {
		return nil, mapErr(err)
	}
	reply, err := structpb.NewStruct(map[string]interface{}{
		"id":      id,
		"key_b64": base64.StdEncoding.EncodeToString(key),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "reply encoding failed")
	}
	return reply, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, store.ErrNotFound.Error())
	case errors.Is(err, store.ErrInvalidID):
		return status.Error(codes.InvalidArgument, store.ErrInvalidID.Error())
	case errors.Is(err, store.ErrCorrupted):
		return status.Error(codes.DataLoss, store.ErrCorrupted.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
