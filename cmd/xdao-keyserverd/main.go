package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/macaroon/store/grpcstore"
	"xdao.co/macaroon/store/storeregistry"

	_ "xdao.co/macaroon/store/fsstore"
	_ "xdao.co/macaroon/store/memstore"
)

func main() {
	fs := flag.NewFlagSet("xdao-keyserverd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7779", "listen address")
	backend := fs.String("store", "fs", "root key store backend name")
	listStores := fs.Bool("list-stores", false, "List supported store backends and exit")

	storeregistry.RegisterFlags(fs, storeregistry.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listStores {
		for _, b := range storeregistry.List(storeregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Str("app", "xdao-keyserverd").Logger()

	s, closeFn, err := storeregistry.Open(*backend, storeregistry.UsageDaemon)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		logger.Fatal().Err(err).Msg("listen")
	}
	defer lis.Close()

	srv := grpc.NewServer(grpc.UnaryInterceptor(accessLog(logger)))
	grpcstore.RegisterRootKeysServer(srv, &grpcstore.Server{Store: s})

	logger.Info().Str("listen", lis.Addr().String()).Str("store", *backend).Msg("listening")
	if err := srv.Serve(lis); err != nil {
		logger.Fatal().Err(err).Msg("serve")
	}
}

// accessLog logs one line per RPC with its status code and duration.
func accessLog(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		st, _ := status.FromError(err)
		code := st.Code()

		event := logger.Info()
		switch code {
		case codes.OK:
		case codes.NotFound, codes.InvalidArgument:
			event = logger.Warn()
		default:
			event = logger.Error()
		}
		event.
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}
