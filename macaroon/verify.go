package macaroon

import (
	"crypto/hmac"
	"fmt"
)

// Verifier checks macaroons presented with a request.
//
// A first-party caveat condition is satisfied when it matches a
// condition given to SatisfyExact or when any predicate given to
// SatisfyGeneral accepts it. Third-party caveats are satisfied by
// discharge macaroons passed to Verify.
//
// A Verifier is not safe for concurrent mutation; configure it first,
// then share it for verification.
type Verifier struct {
	exact   map[string]bool
	general []func(condition string) bool
}

func NewVerifier() *Verifier {
	return &Verifier{exact: make(map[string]bool)}
}

// SatisfyExact marks a condition as satisfied when a caveat carries
// exactly this text.
func (v *Verifier) SatisfyExact(condition string) {
	if v.exact == nil {
		v.exact = make(map[string]bool)
	}
	v.exact[condition] = true
}

// SatisfyGeneral adds a predicate that may satisfy caveat conditions.
func (v *Verifier) SatisfyGeneral(predicate func(condition string) bool) {
	v.general = append(v.general, predicate)
}

func (v *Verifier) satisfied(condition string) bool {
	if v.exact[condition] {
		return true
	}
	for _, p := range v.general {
		if p(condition) {
			return true
		}
	}
	return false
}

// Verify checks m against the root key it was minted with: the
// signature chain must recompute, every first-party caveat must be
// satisfied, and every third-party caveat must be discharged by a bound
// discharge macaroon from discharges. Each discharge must be used
// exactly once.
func (v *Verifier) Verify(m *Macaroon, rootKey []byte, discharges ...*Macaroon) error {
	if m == nil {
		return newError(KindInternal, "nil macaroon")
	}
	if len(rootKey) == 0 {
		return newError(KindCrypto, "root key is required")
	}
	used := make([]bool, len(discharges))
	if err := v.verify(m, m.Signature, deriveKey(rootKey), discharges, used); err != nil {
		return err
	}
	for i, u := range used {
		if !u {
			return newError(KindVerify,
				fmt.Sprintf("discharge macaroon %q was not used", discharges[i].Identifier))
		}
	}
	return nil
}

// verify walks one macaroon's chain. targetSig is the wire signature of
// the macaroon the request presents, used to check discharge binding;
// key is already derived for the top-level macaroon and is the sealed
// caveat key for a discharge.
func (v *Verifier) verify(m *Macaroon, targetSig, key [SignatureSize]byte, discharges []*Macaroon, used []bool) error {
	sig := keyedHash(key, []byte(m.Identifier))
	for _, cav := range m.Caveats {
		if !cav.ThirdParty() {
			if !v.satisfied(cav.ID) {
				return newError(KindVerify, fmt.Sprintf("caveat %q not satisfied", cav.ID))
			}
			sig = keyedHash(sig, []byte(cav.ID))
			continue
		}
		cavKey, err := openCaveatKey(sig, cav.VerifierID)
		if err != nil {
			return err
		}
		di := -1
		for i, d := range discharges {
			if d.Identifier == cav.ID {
				di = i
				break
			}
		}
		if di < 0 {
			return newError(KindVerify, fmt.Sprintf("no discharge macaroon for caveat %q", cav.ID))
		}
		if used[di] {
			return newError(KindVerify,
				fmt.Sprintf("discharge macaroon %q used more than once", discharges[di].Identifier))
		}
		used[di] = true
		if err := v.verify(discharges[di], targetSig, cavKey, discharges, used); err != nil {
			return err
		}
		sig = keyedHash2(sig, []byte(cav.VerifierID), []byte(cav.ID))
	}
	// For the top-level macaroon bindForRequest is the identity when the
	// chain recomputes, so one comparison covers both it and discharges.
	bound := bindForRequest(targetSig, sig)
	if !hmac.Equal(bound[:], m.Signature[:]) {
		return newError(KindVerify, "signature mismatch after caveat verification")
	}
	return nil
}

// VerifySignature recomputes the signature chain from the root key
// without checking caveat conditions or discharges. It answers "was
// this macaroon minted from this key and left intact", not "may this
// request proceed".
func (m *Macaroon) VerifySignature(rootKey []byte) error {
	if len(rootKey) == 0 {
		return newError(KindCrypto, "root key is required")
	}
	sig := keyedHash(deriveKey(rootKey), []byte(m.Identifier))
	for _, cav := range m.Caveats {
		if cav.ThirdParty() {
			sig = keyedHash2(sig, []byte(cav.VerifierID), []byte(cav.ID))
		} else {
			sig = keyedHash(sig, []byte(cav.ID))
		}
	}
	if !hmac.Equal(sig[:], m.Signature[:]) {
		return newError(KindVerify, "signature mismatch")
	}
	return nil
}
