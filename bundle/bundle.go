// Package bundle packages a macaroon together with the discharge
// macaroons that satisfy its third-party caveats, so a client can
// present one blob instead of several tokens. Bundles are deterministic
// CBOR: sealing the same tokens always produces identical bytes, and
// the embedded tokens travel in the compact binary format.
package bundle

import (
	"fmt"

	"xdao.co/macaroon/internal/codec"
	"xdao.co/macaroon/macaroon"
)

// FormatVersion is the current bundle schema version.
const FormatVersion = 1

// Bundle is an opened presentation bundle. The discharges are bound to
// the target's signature.
type Bundle struct {
	Target     *macaroon.Macaroon
	Discharges []*macaroon.Macaroon
}

// bundleRecord is the stored form of a Bundle.
type bundleRecord struct {
	Version    uint     `cbor:"version"`
	Target     []byte   `cbor:"target"`
	Discharges [][]byte `cbor:"discharges,omitempty"`
}

// Seal encodes the target with its discharges. Each discharge is
// cloned and bound to the target's signature, so callers pass the
// discharges as minted by their services; the originals stay unbound
// and reusable against other targets.
func Seal(target *macaroon.Macaroon, discharges ...*macaroon.Macaroon) ([]byte, error) {
	if target == nil {
		return nil, fmt.Errorf("bundle: nil target macaroon")
	}
	rec := bundleRecord{Version: FormatVersion}
	blob, err := target.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("bundle: encoding target: %w", err)
	}
	rec.Target = blob
	for i, d := range discharges {
		if d == nil {
			return nil, fmt.Errorf("bundle: nil discharge %d", i)
		}
		bound := d.Clone()
		bound.Bind(target.Signature)
		blob, err := bound.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("bundle: encoding discharge %d: %w", i, err)
		}
		rec.Discharges = append(rec.Discharges, blob)
	}
	return codec.Marshal(rec)
}

// Open decodes a sealed bundle.
func Open(data []byte) (*Bundle, error) {
	var rec bundleRecord
	if err := codec.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("bundle: decoding: %w", err)
	}
	if rec.Version != FormatVersion {
		return nil, fmt.Errorf("bundle: unsupported version %d", rec.Version)
	}
	b := &Bundle{Target: new(macaroon.Macaroon)}
	if err := b.Target.UnmarshalBinary(rec.Target); err != nil {
		return nil, fmt.Errorf("bundle: decoding target: %w", err)
	}
	for i, blob := range rec.Discharges {
		d := new(macaroon.Macaroon)
		if err := d.UnmarshalBinary(blob); err != nil {
			return nil, fmt.Errorf("bundle: decoding discharge %d: %w", i, err)
		}
		b.Discharges = append(b.Discharges, d)
	}
	return b, nil
}

// Verify runs the verifier over the bundle's target with its
// discharges.
func (b *Bundle) Verify(v *macaroon.Verifier, rootKey []byte) error {
	return v.Verify(b.Target, rootKey, b.Discharges...)
}
