package memstore

import (
	"flag"

	"xdao.co/macaroon/store"
	"xdao.co/macaroon/store/storeregistry"
)

func init() {
	storeregistry.MustRegister(storeregistry.Backend{
		Name:        "mem",
		Description: "In-memory root key store (keys lost on exit)",
		Usage:       storeregistry.UsageCLI | storeregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {},
		Open: func() (store.RootKeyStore, func() error, error) {
			return New(), nil, nil
		},
	})
}
