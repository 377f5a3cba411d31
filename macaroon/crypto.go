package macaroon

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// keyGenerator is the fixed HMAC key under which caller-supplied root
// keys are derived before use. Every macaroon implementation shares
// this constant; changing it breaks discharge interoperability.
const keyGenerator = "macaroons-key-generator"

const nonceSize = 24

func deriveKey(rootKey []byte) [SignatureSize]byte {
	return keyedHash32(keyGenerator, rootKey)
}

func keyedHash32(key string, data []byte) [SignatureSize]byte {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	var out [SignatureSize]byte
	h.Sum(out[:0])
	return out
}

func keyedHash(key [SignatureSize]byte, data []byte) [SignatureSize]byte {
	h := hmac.New(sha256.New, key[:])
	h.Write(data)
	var out [SignatureSize]byte
	h.Sum(out[:0])
	return out
}

// keyedHash2 chains two values into the signature:
// HMAC(key, HMAC(key, d1) || HMAC(key, d2)).
func keyedHash2(key [SignatureSize]byte, d1, d2 []byte) [SignatureSize]byte {
	h1 := keyedHash(key, d1)
	h2 := keyedHash(key, d2)
	return keyedHash(key, append(h1[:], h2[:]...))
}

// New mints a macaroon. The root key is the minting service's secret;
// the identifier tells the service, later, which root key the macaroon
// was minted with.
func New(rootKey []byte, id, location string) (*Macaroon, error) {
	if len(rootKey) == 0 {
		return nil, newError(KindCrypto, "root key is required")
	}
	if id == "" {
		return nil, newError(KindCrypto, "macaroon identifier is required")
	}
	m := &Macaroon{Location: location, Identifier: id}
	m.Signature = keyedHash(deriveKey(rootKey), []byte(id))
	return m, nil
}

// AddFirstPartyCaveat appends a caveat whose condition the target
// service checks itself and folds it into the signature.
func (m *Macaroon) AddFirstPartyCaveat(condition string) error {
	if condition == "" {
		return newError(KindCrypto, "caveat condition is required")
	}
	m.Caveats = append(m.Caveats, Caveat{ID: condition})
	m.Signature = keyedHash(m.Signature, []byte(condition))
	return nil
}

// AddThirdPartyCaveat appends a caveat that must be discharged by the
// service at location. The caveat key is sealed under the current
// signature so that only a verifier walking the chain can recover it;
// id tells the third party which caveat is being discharged, typically
// produced by sealing the key and condition to its public key.
//
// The sealed key travels base64-encoded: the V1 format trims packet
// values, so the wire value must stay text.
func (m *Macaroon) AddThirdPartyCaveat(caveatKey []byte, id, location string) error {
	if len(caveatKey) == 0 {
		return newError(KindCrypto, "caveat key is required")
	}
	if id == "" {
		return newError(KindCrypto, "caveat identifier is required")
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return wrapError(KindCrypto, "cannot generate nonce", err)
	}
	derived := deriveKey(caveatKey)
	sealed := secretbox.Seal(nonce[:], derived[:], &nonce, &m.Signature)
	vid := encodeBase64(sealed)
	m.Caveats = append(m.Caveats, Caveat{ID: id, VerifierID: vid, Location: location})
	m.Signature = keyedHash2(m.Signature, []byte(vid), []byte(id))
	return nil
}

// openCaveatKey recovers the derived caveat key sealed by
// AddThirdPartyCaveat. sig must be the chain signature as it stood when
// the caveat was added.
func openCaveatKey(sig [SignatureSize]byte, vid string) ([SignatureSize]byte, error) {
	var key [SignatureSize]byte
	raw, err := decodeBase64([]byte(vid))
	if err != nil {
		return key, wrapError(KindCrypto, "caveat verification id is not valid base64", err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return key, newError(KindCrypto,
			fmt.Sprintf("caveat verification id is %d bytes, too short for a sealed key", len(raw)))
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	opened, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &sig)
	if !ok {
		return key, newError(KindCrypto, "cannot open caveat verification id")
	}
	if len(opened) != SignatureSize {
		return key, newError(KindCrypto,
			fmt.Sprintf("sealed caveat key is %d bytes, expected %d", len(opened), SignatureSize))
	}
	copy(key[:], opened)
	return key, nil
}

// Bind ties a discharge macaroon to the signature of the macaroon it
// discharges. A discharge must be bound before it is sent with a
// request; an unbound discharge is replayable against other requests.
func (m *Macaroon) Bind(targetSig [SignatureSize]byte) {
	m.Signature = bindForRequest(targetSig, m.Signature)
}

func bindForRequest(targetSig, sig [SignatureSize]byte) [SignatureSize]byte {
	if sig == targetSig {
		return sig
	}
	var zero [SignatureSize]byte
	return keyedHash2(zero, targetSig[:], sig[:])
}
