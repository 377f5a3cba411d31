package grpcstore

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/macaroon/store"
	"xdao.co/macaroon/store/memstore"
	"xdao.co/macaroon/store/testkit"
)

func newBufconnClient(t *testing.T, backing store.RootKeyStore) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterRootKeysServer(srv, &Server{Store: backing})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	return &Client{cc: cc, client: NewRootKeysClient(cc), Timeout: 2 * time.Second}
}

func TestGRPCStore_Memstore_RoundTrip(t *testing.T) {
	client := newBufconnClient(t, memstore.New())

	key, id, err := client.RootKey()
	if err != nil {
		t.Fatalf("RootKey: %v", err)
	}
	if len(key) != store.KeySize {
		t.Fatalf("RootKey length: got %d want %d", len(key), store.KeySize)
	}
	if err := store.CheckID(id); err != nil {
		t.Fatalf("RootKey id %q fails CheckID: %v", id, err)
	}

	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatalf("key mismatch over the wire")
	}
}

func TestGRPCStore_ErrorMapping(t *testing.T) {
	client := newBufconnClient(t, memstore.New())

	if _, err := client.Get("deadbeefdeadbeefdeadbeefdeadbeef"); !store.IsNotFound(err) {
		t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
	}
}

func TestGRPCStoreConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) store.RootKeyStore {
		return newBufconnClient(t, memstore.New())
	})
}
