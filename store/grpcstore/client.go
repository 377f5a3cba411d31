package grpcstore

import (
	"context"
	"encoding/base64"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/macaroon/store"
)

// Client implements store.RootKeyStore over a RootKeys gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client RootKeysClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var _ store.RootKeyStore = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewRootKeysClient(cc), Timeout: 0}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Get(id string) ([]byte, error) {
	if err := store.CheckID(id); err != nil {
		return nil, err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(id))
	if err != nil {
		return nil, mapRPC(err)
	}
	key := reply.GetValue()
	if len(key) != store.KeySize {
		return nil, store.ErrCorrupted
	}
	return key, nil
}

func (c *Client) RootKey() ([]byte, string, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Current(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, "", mapRPC(err)
	}
	fields := reply.GetFields()
	id := fields["id"].GetStringValue()
	if err := store.CheckID(id); err != nil {
		return nil, "", store.ErrCorrupted
	}
	key, err := base64.StdEncoding.DecodeString(fields["key_b64"].GetStringValue())
	if err != nil || len(key) != store.KeySize {
		return nil, "", store.ErrCorrupted
	}
	return key, id, nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
