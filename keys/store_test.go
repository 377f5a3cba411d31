package keys

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func testSeed(fill byte) []byte {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = fill
	}
	return seed
}

func TestKeyStoreInitAndExport(t *testing.T) {
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}

	publicKey, path, err := ks.InitializeRootKey("authsvc", testSeed(0x11), false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat seed file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("seed file mode %v, want 0600", info.Mode().Perm())
	}

	exported, err := ks.ExportKey("authsvc", "")
	if err != nil {
		t.Fatalf("ExportKey: %v", err)
	}
	if exported != publicKey {
		t.Errorf("exported key %q differs from initialized key %q", exported, publicKey)
	}

	// A second init without overwrite must not clobber the seed.
	if _, _, err := ks.InitializeRootKey("authsvc", testSeed(0x22), false); err == nil {
		t.Error("expected re-initialization without overwrite to fail")
	}
}

func TestKeyStoreDeriveServiceKey(t *testing.T) {
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}
	if _, _, err := ks.InitializeRootKey("org", testSeed(0x33), false); err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}

	authKey, _, err := ks.DeriveServiceKey("org", "auth", false)
	if err != nil {
		t.Fatalf("DeriveServiceKey: %v", err)
	}
	billingKey, _, err := ks.DeriveServiceKey("org", "billing", false)
	if err != nil {
		t.Fatalf("DeriveServiceKey: %v", err)
	}
	if authKey == billingKey {
		t.Error("different services derived identical keys")
	}

	// The stored pair must round-trip as usable key material.
	kp, err := ks.KeyPair("org", "auth")
	if err != nil {
		t.Fatalf("KeyPair: %v", err)
	}
	if kp.PublicString() != authKey {
		t.Error("loaded key pair does not match the derived public key")
	}

	entries, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "org" {
		t.Fatalf("ListKeys: %+v", entries)
	}
	if len(entries[0].Services) != 2 || entries[0].Services[0] != "auth" || entries[0].Services[1] != "billing" {
		t.Errorf("services: %v", entries[0].Services)
	}
}

func TestKeyStoreLoadSeedPrecedence(t *testing.T) {
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}
	_, path, err := ks.InitializeRootKey("org", testSeed(0x44), false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}

	// Literal hex wins over everything else.
	seed, err := ks.LoadSeed("0x"+strings.Repeat("55", SeedSize), "org", "", path)
	if err != nil {
		t.Fatalf("LoadSeed(hex): %v", err)
	}
	if !bytes.Equal(seed, testSeed(0x55)) {
		t.Error("literal hex seed not honored")
	}

	// Then the key file, then the stored name.
	seed, err = ks.LoadSeed("", "", "", path)
	if err != nil {
		t.Fatalf("LoadSeed(file): %v", err)
	}
	if !bytes.Equal(seed, testSeed(0x44)) {
		t.Error("seed file not honored")
	}

	seed, err = ks.LoadSeed("", "org", "", "")
	if err != nil {
		t.Fatalf("LoadSeed(name): %v", err)
	}
	if !bytes.Equal(seed, testSeed(0x44)) {
		t.Error("stored name not honored")
	}

	if _, err := ks.LoadSeed("", "", "", ""); err == nil {
		t.Error("expected no key source to be an error")
	}
}
