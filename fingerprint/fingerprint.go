// Package fingerprint derives stable content identifiers for encoded
// macaroons. A fingerprint is the CIDv1 (raw multicodec, sha2-256
// multihash) of the token's serialized bytes, so two byte-identical
// tokens always share a fingerprint and any re-encoding that changes a
// byte changes it. Fingerprints name tokens in logs, revocation lists,
// and conformance vectors without quoting the token itself.
package fingerprint

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/macaroon/macaroon"
)

// Of returns the fingerprint of an already-encoded token.
func Of(encoded []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(encoded, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String returns the fingerprint of encoded token bytes as a CIDv1
// string, or "" if the multihash cannot be computed (unreachable for
// sha2-256 with default length).
func String(encoded []byte) string {
	c, err := Of(encoded)
	if err != nil {
		return ""
	}
	return c.String()
}

// OfMacaroon fingerprints a macaroon through its canonical binary
// image, so the fingerprint does not depend on which text transport
// carried the token.
func OfMacaroon(m *macaroon.Macaroon) (cid.Cid, error) {
	raw, err := m.MarshalBinary()
	if err != nil {
		return cid.Undef, err
	}
	return Of(raw)
}

// Parse validates a fingerprint string and returns its CID form.
func Parse(s string) (cid.Cid, error) {
	return cid.Decode(s)
}
