package grpcstore

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RootKeysServer is the server API for the RootKeys gRPC service.
//
// We intentionally use protobuf well-known types so this package does not
// require a protoc/codegen toolchain.
//
// Proto definition: rootkeys.proto.
type RootKeysServer interface {
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Current(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedRootKeysServer can be embedded to have forward compatible implementations.
type UnimplementedRootKeysServer struct{}

func (UnimplementedRootKeysServer) Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedRootKeysServer) Current(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Current not implemented")
}

// RegisterRootKeysServer registers the RootKeys service on a gRPC server.
func RegisterRootKeysServer(s grpc.ServiceRegistrar, srv RootKeysServer) {
	s.RegisterService(&RootKeys_ServiceDesc, srv)
}

// RootKeysClient is the client API for the RootKeys gRPC service.
type RootKeysClient interface {
	Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Current(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type rootKeysClient struct{ cc grpc.ClientConnInterface }

func NewRootKeysClient(cc grpc.ClientConnInterface) RootKeysClient { return &rootKeysClient{cc: cc} }

func (c *rootKeysClient) Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/xdao.macaroon.store.v1.RootKeys/Get", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rootKeysClient) Current(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/xdao.macaroon.store.v1.RootKeys/Current", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _RootKeys_Get_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RootKeysServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/xdao.macaroon.store.v1.RootKeys/Get"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RootKeysServer).Get(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _RootKeys_Current_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RootKeysServer).Current(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/xdao.macaroon.store.v1.RootKeys/Current"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RootKeysServer).Current(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// RootKeys_ServiceDesc is the grpc.ServiceDesc for RootKeys service.
var RootKeys_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "xdao.macaroon.store.v1.RootKeys",
	HandlerType: (*RootKeysServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: _RootKeys_Get_Handler},
		{MethodName: "Current", Handler: _RootKeys_Current_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rootkeys.proto",
}
