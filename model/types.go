package model

// CaveatInfo is a human-readable view of one caveat.
//
// ThirdParty is derived from the presence of a verifier id; the verifier
// id itself is already transport-safe text and is carried verbatim.
type CaveatInfo struct {
	ID         string `json:"id"`
	Location   string `json:"location,omitempty"`
	VerifierID string `json:"verifierID,omitempty"`
	ThirdParty bool   `json:"thirdParty"`
}

// TokenInfo is a compact view of one macaroon.
//
// Notes:
// - SignatureHex is the 32-byte chain signature, lowercase hex.
// - Fingerprint is the CIDv1 of the canonical binary image (see package
//   fingerprint); it names the token without quoting it.
// - Format is the detected transport format of the input, when the token
//   arrived encoded ("v1", "v2", "v2j").
type TokenInfo struct {
	Location     string       `json:"location,omitempty"`
	Identifier   string       `json:"identifier"`
	Caveats      []CaveatInfo `json:"caveats"`
	SignatureHex string       `json:"signatureHex"`
	Fingerprint  string       `json:"fingerprint"`
	Format       string       `json:"format,omitempty"`
}

// BundleInfo is a compact view of a sealed credential bundle.
type BundleInfo struct {
	Target     TokenInfo   `json:"target"`
	Discharges []TokenInfo `json:"discharges"`
}
