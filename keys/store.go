package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore is a simple local-first store for discharge-service key
// seeds.
//
// EXPERIMENTAL: this filesystem-backed storage surface is not part of the
// stable protocol core API and may change in MINOR releases.
//
// Features:
// - Supports X25519 keys only
// - Stores seeds on the local filesystem
// - Generates deterministic service subkeys from a named root seed
//
// This package is designed to be straightforward and explicit.
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Name     string
	Services []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".xdao", "macaroon-keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) getRootKeyFilePath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) getServiceKeyFilePath(name, service string) string {
	return filepath.Join(ks.Directory, name, "services", service+".key")
}

func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in name", char)
	}
	return nil
}

func CheckService(service string) error {
	if service == "" {
		return errors.New("service cannot be empty")
	}
	for _, char := range service {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in service", char)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeedToFile(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeedFromFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

// InitializeRootKey stores seed as the root seed for name and returns
// the advertised public key and the seed file path.
func (ks *KeyStore) InitializeRootKey(name string, seed []byte, overwrite bool) (publicKey string, filePath string, err error) {
	if err := CheckKeyName(name); err != nil {
		return "", "", err
	}
	kp, err := FromSeed(seed)
	if err != nil {
		return "", "", err
	}
	filePath = ks.getRootKeyFilePath(name)
	if err := ks.saveSeedToFile(filePath, seed, overwrite); err != nil {
		return "", "", err
	}
	return kp.PublicString(), filePath, nil
}

// DeriveServiceKey derives and stores the seed for one discharge
// service under an existing root key.
func (ks *KeyStore) DeriveServiceKey(from, service string, overwrite bool) (publicKey string, filePath string, err error) {
	if err := CheckKeyName(from); err != nil {
		return "", "", err
	}
	if err := CheckService(service); err != nil {
		return "", "", err
	}
	rootSeed, err := ks.loadSeedFromFile(ks.getRootKeyFilePath(from))
	if err != nil {
		return "", "", err
	}
	serviceSeed, err := DeriveServiceSeed(rootSeed, service)
	if err != nil {
		return "", "", err
	}
	kp, err := FromSeed(serviceSeed)
	if err != nil {
		return "", "", err
	}
	filePath = ks.getServiceKeyFilePath(from, service)
	if err := ks.saveSeedToFile(filePath, serviceSeed, overwrite); err != nil {
		return "", "", err
	}
	return kp.PublicString(), filePath, nil
}

// ExportKey returns the advertised public key for a stored seed; an
// empty service selects the root key.
func (ks *KeyStore) ExportKey(name, service string) (string, error) {
	if err := CheckKeyName(name); err != nil {
		return "", err
	}
	var seed []byte
	var err error
	if service == "" {
		seed, err = ks.loadSeedFromFile(ks.getRootKeyFilePath(name))
	} else {
		if err := CheckService(service); err != nil {
			return "", err
		}
		seed, err = ks.loadSeedFromFile(ks.getServiceKeyFilePath(name, service))
	}
	if err != nil {
		return "", err
	}
	kp, err := FromSeed(seed)
	if err != nil {
		return "", err
	}
	return kp.PublicString(), nil
}

// KeyPair loads a stored seed as a usable key pair; an empty service
// selects the root key.
func (ks *KeyStore) KeyPair(name, service string) (*KeyPair, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, err
	}
	path := ks.getRootKeyFilePath(name)
	if service != "" {
		if err := CheckService(service); err != nil {
			return nil, err
		}
		path = ks.getServiceKeyFilePath(name, service)
	}
	seed, err := ks.loadSeedFromFile(path)
	if err != nil {
		return nil, err
	}
	return FromSeed(seed)
}

// LoadSeed resolves a seed from, in order of precedence: literal hex, a
// seed file path, or a stored name/service pair.
func (ks *KeyStore) LoadSeed(seedHex, name, service, keyFile string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return ks.loadSeedFromFile(keyFile)
	}
	if name != "" {
		if err := CheckKeyName(name); err != nil {
			return nil, err
		}
		if service == "" {
			return ks.loadSeedFromFile(ks.getRootKeyFilePath(name))
		}
		if err := CheckService(service); err != nil {
			return nil, err
		}
		return ks.loadSeedFromFile(ks.getServiceKeyFilePath(name, service))
	}
	return nil, errors.New("no key source provided")
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var result []KeyEntry
	for _, name := range names {
		servicesDir := filepath.Join(ks.Directory, name, "services")
		serviceEntries, serr := os.ReadDir(servicesDir)
		var services []string
		if serr == nil {
			for _, serviceEntry := range serviceEntries {
				if serviceEntry.IsDir() {
					continue
				}
				if strings.HasSuffix(serviceEntry.Name(), ".key") {
					services = append(services, strings.TrimSuffix(serviceEntry.Name(), ".key"))
				}
			}
			sort.Strings(services)
		}
		result = append(result, KeyEntry{Name: name, Services: services})
	}
	return result, nil
}
