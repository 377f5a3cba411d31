package fsstore

import (
	"flag"
	"fmt"

	"xdao.co/macaroon/store"
	"xdao.co/macaroon/store/storeregistry"
)

var (
	flagDir string
)

func init() {
	storeregistry.MustRegister(storeregistry.Backend{
		Name:        "fs",
		Description: "Filesystem root key store (directory)",
		Usage:       storeregistry.UsageCLI | storeregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagDir, "fs-dir", "", "Root key store directory (for --store=fs)")
		},
		Open: func() (store.RootKeyStore, func() error, error) {
			if flagDir == "" {
				return nil, nil, fmt.Errorf("missing --fs-dir")
			}
			s, err := New(flagDir)
			return s, nil, err
		},
	})
}
