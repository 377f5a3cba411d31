package model

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	"xdao.co/macaroon/bundle"
	"xdao.co/macaroon/fingerprint"
	"xdao.co/macaroon/macaroon"
)

var testRootKey = []byte("this is our super secret key; only we should know it")

func mintTestMacaroon(t *testing.T) *macaroon.Macaroon {
	t.Helper()
	m, err := macaroon.New(testRootKey, "keyid", "http://example.org/")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestFromMacaroon(t *testing.T) {
	m := mintTestMacaroon(t)
	if err := m.AddFirstPartyCaveat("account = 3735928559"); err != nil {
		t.Fatalf("AddFirstPartyCaveat failed: %v", err)
	}

	info, err := FromMacaroon(m)
	if err != nil {
		t.Fatalf("FromMacaroon failed: %v", err)
	}
	if info.Location != "http://example.org/" || info.Identifier != "keyid" {
		t.Fatalf("header fields mismatch: %+v", info)
	}
	if len(info.Caveats) != 1 {
		t.Fatalf("caveats: got %d want 1", len(info.Caveats))
	}
	if c := info.Caveats[0]; c.ID != "account = 3735928559" || c.ThirdParty {
		t.Fatalf("caveat mismatch: %+v", c)
	}
	if info.SignatureHex != hex.EncodeToString(m.Signature[:]) {
		t.Fatalf("signature hex mismatch")
	}
	if _, err := fingerprint.Parse(info.Fingerprint); err != nil {
		t.Fatalf("fingerprint does not parse: %v", err)
	}
	if info.Format != "" {
		t.Fatalf("projection of an in-memory token must not claim a transport format")
	}
}

func TestDescribe_ReportsDetectedFormat(t *testing.T) {
	m := mintTestMacaroon(t)

	for _, format := range macaroon.Formats() {
		encoded, err := macaroon.Serialize(m, format)
		if err != nil {
			t.Fatalf("Serialize(%s) failed: %v", format, err)
		}
		info, err := Describe(encoded)
		if err != nil {
			t.Fatalf("Describe(%s) failed: %v", format, err)
		}
		if info.Format != string(format) {
			t.Fatalf("format: got %q want %q", info.Format, format)
		}
		if info.Identifier != "keyid" {
			t.Fatalf("identifier: got %q", info.Identifier)
		}
	}
}

func TestDescribe_ErrorCodes(t *testing.T) {
	missingSignature := base64.StdEncoding.EncodeToString([]byte("0015identifier keyid\n"))

	cases := []struct {
		name  string
		token string
		code  ErrorCode
	}{
		{"junk", "!!!not base64 at all!!!", ErrDecode},
		{"missing signature", missingSignature, ErrSequence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Describe(tc.token)
			var cerr *CodedError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected CodedError, got %v", err)
			}
			if cerr.Code != tc.code {
				t.Fatalf("code: got %s want %s", cerr.Code, tc.code)
			}
		})
	}
}

func TestFromBundle(t *testing.T) {
	if _, err := FromBundle(nil); err == nil {
		t.Fatalf("expected error for nil bundle")
	}

	b := &bundle.Bundle{Target: mintTestMacaroon(t)}
	info, err := FromBundle(b)
	if err != nil {
		t.Fatalf("FromBundle failed: %v", err)
	}
	if info.Target.Identifier != "keyid" {
		t.Fatalf("target identifier: got %q", info.Target.Identifier)
	}
	if len(info.Discharges) != 0 {
		t.Fatalf("discharges: got %d want 0", len(info.Discharges))
	}
}
