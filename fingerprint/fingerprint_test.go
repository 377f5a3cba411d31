package fingerprint

import (
	"crypto/sha256"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/macaroon/macaroon"
)

func TestString_Stable(t *testing.T) {
	data := []byte("MDAyMWxvY2F0aW9uIGh0dHA6Ly9leGFtcGxlLm9yZy8K")
	fp1 := String(data)
	fp2 := String(data)
	if fp1 == "" {
		t.Fatal("empty fingerprint")
	}
	if fp1 != fp2 {
		t.Fatalf("fingerprint not stable: %q vs %q", fp1, fp2)
	}
	if String([]byte("different bytes")) == fp1 {
		t.Fatal("different inputs share a fingerprint")
	}
}

func TestOf_MultihashMatchesSHA256(t *testing.T) {
	data := []byte("token bytes")
	c, err := Of(data)
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	if c.Prefix().Codec != cid.Raw {
		t.Fatalf("codec: got %d want %d", c.Prefix().Codec, cid.Raw)
	}
	dec, err := multihash.Decode(c.Hash())
	if err != nil {
		t.Fatalf("decode multihash: %v", err)
	}
	if dec.Code != multihash.SHA2_256 {
		t.Fatalf("multihash code: got %d", dec.Code)
	}
	want := sha256.Sum256(data)
	if string(dec.Digest) != string(want[:]) {
		t.Fatal("multihash digest is not the sha2-256 of the input")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	c, err := Of([]byte("token bytes"))
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	back, err := Parse(c.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !back.Equals(c) {
		t.Fatal("parsed CID differs from the original")
	}
	if _, err := Parse("not a cid"); err == nil {
		t.Fatal("expected junk to be rejected")
	}
}

func TestOfMacaroon_TransportIndependent(t *testing.T) {
	m, err := macaroon.New([]byte("root key"), "keyid", "http://example.org/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fp, err := OfMacaroon(m)
	if err != nil {
		t.Fatalf("OfMacaroon: %v", err)
	}

	// The same macaroon carried over different text transports must keep
	// its fingerprint.
	for _, f := range []macaroon.Format{macaroon.FormatV1, macaroon.FormatV2, macaroon.FormatV2JSON} {
		text, err := macaroon.Serialize(m, f)
		if err != nil {
			t.Fatalf("%s: Serialize: %v", f, err)
		}
		m2, err := macaroon.DeserializeString(text)
		if err != nil {
			t.Fatalf("%s: Deserialize: %v", f, err)
		}
		fp2, err := OfMacaroon(m2)
		if err != nil {
			t.Fatalf("%s: OfMacaroon: %v", f, err)
		}
		if !fp2.Equals(fp) {
			t.Errorf("%s: fingerprint changed across the wire", f)
		}
	}
}
