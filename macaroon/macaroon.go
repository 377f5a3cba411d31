// Package macaroon implements minting, attenuation, verification, and the
// wire formats for macaroon bearer credentials.
//
// A macaroon carries a target location, an opaque identifier minted by the
// target service, an ordered chain of caveats, and an HMAC-SHA256 signature
// over identifier and chain. Serialize and Deserialize convert between the
// in-memory form and the transmissible encodings; see Format for the
// supported encodings.
package macaroon

import (
	"crypto/sha256"
	"fmt"
	"unicode/utf8"
)

// SignatureSize is the size of a macaroon signature. Signatures are
// HMAC-SHA256 values, so every well-formed macaroon carries exactly
// this many signature bytes regardless of wire format.
const SignatureSize = sha256.Size

// Macaroon is a bearer credential.
//
// Location is advisory routing information and is not covered by the
// signature. Caveat order is significant: the signature folds over the
// caveats in order, and every codec preserves that order exactly.
//
// Deserialize always builds a fresh Macaroon; Serialize never mutates
// the one it is given.
type Macaroon struct {
	Location   string
	Identifier string
	Caveats    []Caveat
	Signature  [SignatureSize]byte
}

// Caveat restricts when, where, or by whom a Macaroon may be used.
//
// A first-party caveat carries a predicate in ID and nothing else. A
// third-party caveat additionally carries the sealed caveat key in
// VerifierID and, usually, the discharge service location in Location.
// The empty string means absent for VerifierID and Location.
type Caveat struct {
	ID         string
	VerifierID string
	Location   string
}

// ThirdParty reports whether the caveat must be discharged by a third party.
func (c Caveat) ThirdParty() bool {
	return c.VerifierID != ""
}

// Clone returns a deep copy of m. Binding a discharge mutates its
// signature, so callers that present the same discharge to several
// targets bind a clone per target.
func (m *Macaroon) Clone() *Macaroon {
	c := *m
	c.Caveats = append([]Caveat(nil), m.Caveats...)
	return &c
}

// validate rejects macaroons that no wire format can represent. All
// model fields are text, so bytes that are not valid UTF-8 have no
// encoding; every decoder enforces the same rule on the way in.
func (m *Macaroon) validate() error {
	if m == nil {
		return newError(KindInternal, "nil macaroon")
	}
	if !utf8.ValidString(m.Location) {
		return newError(KindText, "location is not valid UTF-8")
	}
	if !utf8.ValidString(m.Identifier) {
		return newError(KindText, "identifier is not valid UTF-8")
	}
	for i, cav := range m.Caveats {
		if cav.ID == "" {
			return newError(KindSequence, fmt.Sprintf("caveat %d has an empty identifier", i))
		}
		if !utf8.ValidString(cav.ID) || !utf8.ValidString(cav.VerifierID) || !utf8.ValidString(cav.Location) {
			return newError(KindText, fmt.Sprintf("caveat %d carries bytes that are not valid UTF-8", i))
		}
	}
	return nil
}
