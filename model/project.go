package model

import (
	"encoding/hex"

	"xdao.co/macaroon/bundle"
	"xdao.co/macaroon/fingerprint"
	"xdao.co/macaroon/macaroon"
)

// FromMacaroon projects a decoded macaroon into its boundary view.
func FromMacaroon(m *macaroon.Macaroon) (TokenInfo, error) {
	if m == nil {
		return TokenInfo{}, NewError(ErrInvalidRequest, "nil macaroon")
	}
	fp, err := fingerprint.OfMacaroon(m)
	if err != nil {
		return TokenInfo{}, mapErr(err)
	}

	info := TokenInfo{
		Location:     m.Location,
		Identifier:   m.Identifier,
		Caveats:      make([]CaveatInfo, 0, len(m.Caveats)),
		SignatureHex: hex.EncodeToString(m.Signature[:]),
		Fingerprint:  fp.String(),
	}
	for _, c := range m.Caveats {
		info.Caveats = append(info.Caveats, CaveatInfo{
			ID:         c.ID,
			Location:   c.Location,
			VerifierID: c.VerifierID,
			ThirdParty: c.ThirdParty(),
		})
	}
	return info, nil
}

// Describe decodes an encoded token in any registered format and projects it.
func Describe(token string) (TokenInfo, error) {
	format := macaroon.DetectFormat([]byte(token))
	m, err := macaroon.DeserializeString(token)
	if err != nil {
		return TokenInfo{}, mapErr(err)
	}
	info, err := FromMacaroon(m)
	if err != nil {
		return TokenInfo{}, err
	}
	info.Format = string(format)
	return info, nil
}

// FromBundle projects an opened credential bundle.
func FromBundle(b *bundle.Bundle) (BundleInfo, error) {
	if b == nil || b.Target == nil {
		return BundleInfo{}, NewError(ErrInvalidRequest, "nil bundle")
	}
	target, err := FromMacaroon(b.Target)
	if err != nil {
		return BundleInfo{}, err
	}
	out := BundleInfo{Target: target, Discharges: make([]TokenInfo, 0, len(b.Discharges))}
	for _, d := range b.Discharges {
		info, err := FromMacaroon(d)
		if err != nil {
			return BundleInfo{}, err
		}
		out.Discharges = append(out.Discharges, info)
	}
	return out, nil
}
