package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"xdao.co/macaroon/bundle"
	"xdao.co/macaroon/checkers"
	"xdao.co/macaroon/fingerprint"
	"xdao.co/macaroon/keys"
	"xdao.co/macaroon/macaroon"
	"xdao.co/macaroon/model"
	"xdao.co/macaroon/revocation"
	"xdao.co/macaroon/store"
	"xdao.co/macaroon/store/storeregistry"
	"xdao.co/macaroon/thirdparty"

	_ "xdao.co/macaroon/store/fsstore"
	_ "xdao.co/macaroon/store/grpcstore"
	_ "xdao.co/macaroon/store/memstore"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "caveat":
		return cmdCaveat(args[1:], out, errOut)
	case "discharge":
		return cmdDischarge(args[1:], out, errOut)
	case "fingerprint":
		return cmdFingerprint(args[1:], out, errOut)
	case "inspect":
		return cmdInspect(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "mint":
		return cmdMint(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-macaroon: mint, attenuate, discharge, and verify macaroon credentials")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-macaroon mint (--key-hex <hex> | --key-file <path> | --store <backend>) [--id <id>] [--location <loc>] [--caveat <condition> ...] [--format v1|v2|v2j]")
	fmt.Fprintln(w, "  xdao-macaroon caveat --token <file> --condition <text> [--format ...]")
	fmt.Fprintln(w, "  xdao-macaroon caveat --token <file> --condition <text> --third-party --service-pub <x25519:...> --service-location <loc> [--algorithm box|hpke]")
	fmt.Fprintln(w, "  xdao-macaroon inspect [--json] <token-file>")
	fmt.Fprintln(w, "  xdao-macaroon verify (--key-hex <hex> | --key-file <path> | --store <backend>) (--token <file> [--discharge <file> ...] | --bundle <file>) [--exact <condition> ...] [--now <RFC3339>] [--revoked <file>]")
	fmt.Fprintln(w, "  xdao-macaroon discharge --key <name> [--service <service>] [--location <loc>] [--require <condition>] <caveat-id-file>")
	fmt.Fprintln(w, "  xdao-macaroon fingerprint <token-file>")
	fmt.Fprintln(w, "  xdao-macaroon key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-macaroon key derive --from <name> --service <service> [--force]")
	fmt.Fprintln(w, "  xdao-macaroon key list")
	fmt.Fprintln(w, "  xdao-macaroon key export --name <name> [--service <service>]")
	fmt.Fprintln(w, "  xdao-macaroon bundle seal --target <file> [--discharge <file> ...] [--out <file>]")
	fmt.Fprintln(w, "  xdao-macaroon bundle open [--json] <bundle-file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - token files hold one encoded macaroon in any supported format; the format is detected")
	fmt.Fprintln(w, "  - mint --store uses the store's current root key and defaults --id to the key id")
	fmt.Fprintln(w, "  - verify --store looks the root key up by the token's identifier")
	fmt.Fprintln(w, "  - verify --discharge expects discharges already bound to the target; 'bundle seal' binds them")
	fmt.Fprintln(w, "  - time caveats ('time < ...') are always checked; --now pins the clock for reproducible runs")
	fmt.Fprintln(w, "  - discharge emits an unbound discharge macaroon; bind it with 'bundle seal'")
	fmt.Fprintln(w, "  - key seeds live under ~/.xdao/macaroon-keys/<name> (0600 seed files)")
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// keySource selects where a root key comes from: literal hex, a hex file, or
// a registered root key store backend.
type keySource struct {
	keyHex  string
	keyFile string
	backend string
}

func registerKeySource(fs *flag.FlagSet, src *keySource) {
	fs.StringVar(&src.keyHex, "key-hex", "", "Root key as hex")
	fs.StringVar(&src.keyFile, "key-file", "", "File containing the root key as hex")
	fs.StringVar(&src.backend, "store", "", "Root key store backend: "+strings.Join(storeregistry.Names(storeregistry.UsageCLI), ", "))
	storeregistry.RegisterFlags(fs, storeregistry.UsageCLI)
}

func (src keySource) check(errOut io.Writer) bool {
	set := 0
	for _, v := range []string{src.keyHex, src.keyFile, src.backend} {
		if v != "" {
			set++
		}
	}
	if set == 0 {
		fmt.Fprintln(errOut, "missing root key: use --key-hex, --key-file, or --store")
		return false
	}
	if set > 1 {
		fmt.Fprintln(errOut, "conflicting root key flags: use exactly one of --key-hex, --key-file, --store")
		return false
	}
	return true
}

// literal returns the root key when it is given directly (hex or file).
func (src keySource) literal() ([]byte, error) {
	if src.keyHex != "" {
		return hex.DecodeString(strings.TrimSpace(src.keyHex))
	}
	raw, err := os.ReadFile(src.keyFile)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(strings.TrimSpace(string(raw)))
}

func (src keySource) open() (store.RootKeyStore, func() error, error) {
	return storeregistry.Open(src.backend, storeregistry.UsageCLI)
}

func readToken(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func readMacaroon(path string) (*macaroon.Macaroon, macaroon.Format, error) {
	token, err := readToken(path)
	if err != nil {
		return nil, "", err
	}
	format := macaroon.DetectFormat([]byte(token))
	m, err := macaroon.DeserializeString(token)
	if err != nil {
		return nil, "", err
	}
	return m, format, nil
}

func emitToken(out io.Writer, errOut io.Writer, m *macaroon.Macaroon, format macaroon.Format) int {
	token, err := macaroon.Serialize(m, format)
	if err != nil {
		fmt.Fprintf(errOut, "serialize: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, token)
	return 0
}

func cmdMint(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("mint", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var src keySource
	var id string
	var location string
	var format string
	var caveats stringList

	registerKeySource(fs, &src)
	fs.StringVar(&id, "id", "", "Token identifier (defaults to the store key id with --store)")
	fs.StringVar(&location, "location", "", "Target service location")
	fs.StringVar(&format, "format", string(macaroon.FormatV1), "Output format: v1, v2, or v2j")
	fs.Var(&caveats, "caveat", "First-party caveat condition (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !src.check(errOut) {
		return 2
	}

	var rootKey []byte
	if src.backend != "" {
		s, closeFn, err := src.open()
		if err != nil {
			fmt.Fprintf(errOut, "open store: %v\n", err)
			return 1
		}
		if closeFn != nil {
			defer func() { _ = closeFn() }()
		}
		key, keyID, err := s.RootKey()
		if err != nil {
			fmt.Fprintf(errOut, "root key: %v\n", err)
			return 1
		}
		rootKey = key
		if id == "" {
			id = keyID
		}
		fmt.Fprintf(errOut, "Key-ID: %s\n", keyID)
	} else {
		key, err := src.literal()
		if err != nil {
			fmt.Fprintf(errOut, "invalid root key: %v\n", err)
			return 2
		}
		rootKey = key
	}
	if id == "" {
		fmt.Fprintln(errOut, "missing --id")
		return 2
	}

	m, err := macaroon.New(rootKey, id, location)
	if err != nil {
		fmt.Fprintf(errOut, "mint: %v\n", err)
		return 1
	}
	for _, condition := range caveats {
		if err := m.AddFirstPartyCaveat(condition); err != nil {
			fmt.Fprintf(errOut, "add caveat %q: %v\n", condition, err)
			return 1
		}
	}
	return emitToken(out, errOut, m, macaroon.Format(format))
}

func cmdCaveat(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("caveat", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var tokenPath string
	var condition string
	var format string
	var thirdPartyFlag bool
	var servicePub string
	var serviceLocation string
	var algorithm string

	fs.StringVar(&tokenPath, "token", "", "Token file to attenuate")
	fs.StringVar(&condition, "condition", "", "Caveat condition")
	fs.StringVar(&format, "format", "", "Output format (defaults to the input format)")
	fs.BoolVar(&thirdPartyFlag, "third-party", false, "Add a third-party caveat instead of a first-party one")
	fs.StringVar(&servicePub, "service-pub", "", "Discharge service public key (x25519:...)")
	fs.StringVar(&serviceLocation, "service-location", "", "Discharge service location")
	fs.StringVar(&algorithm, "algorithm", "box", "Caveat key sealing algorithm: box or hpke")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if tokenPath == "" {
		fmt.Fprintln(errOut, "missing --token")
		return 2
	}
	if condition == "" {
		fmt.Fprintln(errOut, "missing --condition")
		return 2
	}

	m, detected, err := readMacaroon(tokenPath)
	if err != nil {
		fmt.Fprintf(errOut, "read token: %v\n", err)
		return 1
	}

	if thirdPartyFlag {
		if servicePub == "" {
			fmt.Fprintln(errOut, "missing --service-pub")
			return 2
		}
		pub, err := keys.ParsePublicKey(servicePub)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --service-pub: %v\n", err)
			return 2
		}
		alg, err := thirdparty.ParseAlgorithm(algorithm)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --algorithm: %v\n", err)
			return 2
		}
		if err := thirdparty.AddCaveat(m, alg, pub, serviceLocation, condition, rand.Reader); err != nil {
			fmt.Fprintf(errOut, "add third-party caveat: %v\n", err)
			return 1
		}
	} else {
		if servicePub != "" || serviceLocation != "" {
			fmt.Fprintln(errOut, "--service-pub/--service-location require --third-party")
			return 2
		}
		if err := m.AddFirstPartyCaveat(condition); err != nil {
			fmt.Fprintf(errOut, "add caveat: %v\n", err)
			return 1
		}
	}

	emitFormat := detected
	if format != "" {
		emitFormat = macaroon.Format(format)
	}
	return emitToken(out, errOut, m, emitFormat)
}

func cmdInspect(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var asJSON bool
	fs.BoolVar(&asJSON, "json", false, "Emit JSON")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-macaroon inspect [--json] <token-file>")
		return 2
	}
	token, err := readToken(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read token: %v\n", err)
		return 1
	}
	info, err := model.Describe(token)
	if err != nil {
		fmt.Fprintf(errOut, "inspect: %v\n", err)
		return 1
	}
	if asJSON {
		b, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(errOut, "encode: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, string(b))
		return 0
	}
	printTokenText(out, info, "")
	return 0
}

func printTokenText(w io.Writer, info model.TokenInfo, indent string) {
	if info.Location != "" {
		fmt.Fprintf(w, "%sLocation:    %s\n", indent, info.Location)
	}
	fmt.Fprintf(w, "%sIdentifier:  %s\n", indent, info.Identifier)
	for _, c := range info.Caveats {
		if c.ThirdParty {
			fmt.Fprintf(w, "%sCaveat:      %s (third party", indent, c.ID)
			if c.Location != "" {
				fmt.Fprintf(w, " at %s", c.Location)
			}
			fmt.Fprintln(w, ")")
			continue
		}
		fmt.Fprintf(w, "%sCaveat:      %s\n", indent, c.ID)
	}
	fmt.Fprintf(w, "%sSignature:   %s\n", indent, info.SignatureHex)
	fmt.Fprintf(w, "%sFingerprint: %s\n", indent, info.Fingerprint)
	if info.Format != "" {
		fmt.Fprintf(w, "%sFormat:      %s\n", indent, info.Format)
	}
}

func cmdFingerprint(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("fingerprint", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-macaroon fingerprint <token-file>")
		return 2
	}
	token, err := readToken(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read token: %v\n", err)
		return 1
	}
	fp, err := fingerprint.Of([]byte(token))
	if err != nil {
		fmt.Fprintf(errOut, "fingerprint: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, fp)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var src keySource
	var tokenPath string
	var bundlePath string
	var dischargePaths stringList
	var exact stringList
	var nowFlag string
	var revokedPath string

	registerKeySource(fs, &src)
	fs.StringVar(&tokenPath, "token", "", "Token file to verify")
	fs.StringVar(&bundlePath, "bundle", "", "Sealed bundle file to verify (target plus discharges)")
	fs.Var(&dischargePaths, "discharge", "Bound discharge token file (repeatable)")
	fs.Var(&exact, "exact", "Condition satisfied exactly as given (repeatable)")
	fs.StringVar(&nowFlag, "now", "", "Evaluate time caveats at this RFC3339 instant instead of the wall clock")
	fs.StringVar(&revokedPath, "revoked", "", "Fingerprint revocation list file")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !src.check(errOut) {
		return 2
	}
	if (tokenPath == "") == (bundlePath == "") {
		fmt.Fprintln(errOut, "need exactly one of --token or --bundle")
		return 2
	}
	if bundlePath != "" && len(dischargePaths) > 0 {
		fmt.Fprintln(errOut, "--discharge only applies to --token (bundles carry their own)")
		return 2
	}

	now := time.Now
	if nowFlag != "" {
		at, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --now (expected RFC3339): %v\n", err)
			return 2
		}
		now = func() time.Time { return at }
	}

	var revoked *revocation.List
	if revokedPath != "" {
		var err error
		revoked, err = revocation.LoadFile(revokedPath)
		if err != nil {
			fmt.Fprintf(errOut, "read --revoked: %v\n", err)
			return 1
		}
	}

	var target *macaroon.Macaroon
	var discharges []*macaroon.Macaroon
	if bundlePath != "" {
		raw, err := os.ReadFile(bundlePath)
		if err != nil {
			fmt.Fprintf(errOut, "read bundle: %v\n", err)
			return 1
		}
		b, err := bundle.Open(raw)
		if err != nil {
			fmt.Fprintf(errOut, "open bundle: %v\n", err)
			return 1
		}
		target = b.Target
		discharges = b.Discharges
	} else {
		m, _, err := readMacaroon(tokenPath)
		if err != nil {
			fmt.Fprintf(errOut, "read token: %v\n", err)
			return 1
		}
		target = m
		for _, p := range dischargePaths {
			d, _, err := readMacaroon(p)
			if err != nil {
				fmt.Fprintf(errOut, "read discharge %s: %v\n", p, err)
				return 1
			}
			discharges = append(discharges, d)
		}
	}

	if revoked != nil {
		all := append([]*macaroon.Macaroon{target}, discharges...)
		for _, m := range all {
			fp, err := fingerprint.OfMacaroon(m)
			if err != nil {
				fmt.Fprintf(errOut, "fingerprint: %v\n", err)
				return 1
			}
			if revoked.IsRevoked(fp.String()) {
				fmt.Fprintf(errOut, "revoked: %s\n", fp)
				return 1
			}
		}
	}

	var rootKey []byte
	if src.backend != "" {
		s, closeFn, err := src.open()
		if err != nil {
			fmt.Fprintf(errOut, "open store: %v\n", err)
			return 1
		}
		if closeFn != nil {
			defer func() { _ = closeFn() }()
		}
		key, err := s.Get(target.Identifier)
		if err != nil {
			fmt.Fprintf(errOut, "root key for id %q: %v\n", target.Identifier, err)
			return 1
		}
		rootKey = key
	} else {
		key, err := src.literal()
		if err != nil {
			fmt.Fprintf(errOut, "invalid root key: %v\n", err)
			return 2
		}
		rootKey = key
	}

	v := macaroon.NewVerifier()
	for _, condition := range exact {
		v.SatisfyExact(condition)
	}
	v.SatisfyGeneral(checkers.TimeBefore(now))

	if err := v.Verify(target, rootKey, discharges...); err != nil {
		fmt.Fprintf(errOut, "verify: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}

func cmdDischarge(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("discharge", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var keyName string
	var service string
	var location string
	var require string
	var format string

	fs.StringVar(&keyName, "key", "", "Stored key name (from 'xdao-macaroon key init')")
	fs.StringVar(&service, "service", "", "Optional derived service key")
	fs.StringVar(&location, "location", "", "Location recorded in the discharge macaroon")
	fs.StringVar(&require, "require", "", "Refuse unless the sealed condition equals this value")
	fs.StringVar(&format, "format", string(macaroon.FormatV1), "Output format: v1, v2, or v2j")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if keyName == "" {
		fmt.Fprintln(errOut, "missing --key")
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-macaroon discharge --key <name> [--service <service>] [--location <loc>] [--require <condition>] <caveat-id-file>")
		return 2
	}
	caveatID, err := readToken(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read caveat id: %v\n", err)
		return 1
	}

	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	kp, err := ks.KeyPair(keyName, service)
	if err != nil {
		fmt.Fprintf(errOut, "load key: %v\n", err)
		return 1
	}

	check := func(condition string) error {
		fmt.Fprintf(errOut, "Condition: %s\n", condition)
		if require != "" && condition != require {
			return fmt.Errorf("sealed condition %q does not match --require %q", condition, require)
		}
		return nil
	}
	d, err := thirdparty.Discharge(kp, caveatID, location, check)
	if err != nil {
		fmt.Fprintf(errOut, "discharge: %v\n", err)
		return 1
	}
	return emitToken(out, errOut, d, macaroon.Format(format))
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-macaroon key: minimal local key management for discharge services")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-macaroon key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-macaroon key derive --from <name> --service <service> [--force]")
	fmt.Fprintln(w, "  xdao-macaroon key list")
	fmt.Fprintln(w, "  xdao-macaroon key export --name <name> [--service <service>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.xdao/macaroon-keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional X25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, keys.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	publicKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created key: %s\n", publicKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var service string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&service, "service", "", "Service identifier (e.g. auth, billing)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if service == "" {
		fmt.Fprintln(errOut, "missing --service")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckService(service); err != nil {
		fmt.Fprintf(errOut, "invalid --service: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	publicKey, servicePath, err := ks.DeriveServiceKey(from, service, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive service key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created service key: %s\n", publicKey)
	fmt.Fprintf(out, "Stored at: %s\n", servicePath)
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var service string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&service, "service", "", "Optional service (if set, exports the derived service key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if service != "" {
		if err := keys.CheckService(service); err != nil {
			fmt.Fprintf(errOut, "invalid --service: %v\n", err)
			return 2
		}
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	publicKey, err := ks.ExportKey(name, service)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, publicKey)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Name)
		for _, s := range e.Services {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	return 0
}

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-macaroon bundle <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: seal, open")
		return 2
	}
	switch args[0] {
	case "seal":
		return cmdBundleSeal(args[1:], out, errOut)
	case "open":
		return cmdBundleOpen(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleSeal(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle seal", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var targetPath string
	var outPath string
	var dischargePaths stringList

	fs.StringVar(&targetPath, "target", "", "Target token file")
	fs.StringVar(&outPath, "out", "", "Output file (stdout when empty)")
	fs.Var(&dischargePaths, "discharge", "Unbound discharge token file (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if targetPath == "" {
		fmt.Fprintln(errOut, "missing --target")
		return 2
	}

	target, _, err := readMacaroon(targetPath)
	if err != nil {
		fmt.Fprintf(errOut, "read target: %v\n", err)
		return 1
	}
	discharges := make([]*macaroon.Macaroon, 0, len(dischargePaths))
	for _, p := range dischargePaths {
		d, _, err := readMacaroon(p)
		if err != nil {
			fmt.Fprintf(errOut, "read discharge %s: %v\n", p, err)
			return 1
		}
		discharges = append(discharges, d)
	}

	sealed, err := bundle.Seal(target, discharges...)
	if err != nil {
		fmt.Fprintf(errOut, "seal: %v\n", err)
		return 1
	}
	if outPath == "" {
		_, _ = out.Write(sealed)
		return 0
	}
	if err := os.WriteFile(outPath, sealed, 0o600); err != nil {
		fmt.Fprintf(errOut, "write %s: %v\n", outPath, err)
		return 1
	}
	fmt.Fprintf(errOut, "Wrote bundle: %s (%d bytes)\n", outPath, len(sealed))
	return 0
}

func cmdBundleOpen(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle open", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var asJSON bool
	fs.BoolVar(&asJSON, "json", false, "Emit JSON")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-macaroon bundle open [--json] <bundle-file>")
		return 2
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read bundle: %v\n", err)
		return 1
	}
	b, err := bundle.Open(raw)
	if err != nil {
		fmt.Fprintf(errOut, "open bundle: %v\n", err)
		return 1
	}
	info, err := model.FromBundle(b)
	if err != nil {
		fmt.Fprintf(errOut, "describe bundle: %v\n", err)
		return 1
	}
	if asJSON {
		enc, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(errOut, "encode: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, string(enc))
		return 0
	}
	fmt.Fprintln(out, "Target:")
	printTokenText(out, info.Target, "  ")
	for i, d := range info.Discharges {
		fmt.Fprintf(out, "Discharge %d:\n", i+1)
		printTokenText(out, d, "  ")
	}
	return 0
}
