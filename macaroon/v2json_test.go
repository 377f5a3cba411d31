package macaroon

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
)

func TestV2JSONRoundTrip(t *testing.T) {
	in := &Macaroon{
		Location:   "http://example.org/",
		Identifier: "keyid",
		Caveats: []Caveat{
			{ID: "account = 3735928559"},
			{ID: "remote", VerifierID: "dGhpcmQtcGFydHk=", Location: "https://auth.example.org/"},
		},
		Signature: knownSignatureV1WithCaveat,
	}
	text, err := Serialize(in, FormatV2JSON)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	out, err := Deserialize([]byte(text))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip changed the macaroon:\n in %+v\nout %+v", in, out)
	}
}

func TestV2JSONShape(t *testing.T) {
	m := &Macaroon{Location: "http://example.org/", Identifier: "keyid", Signature: knownSignatureV1}
	text, err := Serialize(m, FormatV2JSON)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if doc["v"] != float64(2) {
		t.Errorf("expected version marker v=2, got %v", doc["v"])
	}
	s64, _ := doc["s64"].(string)
	sig, err := base64.RawURLEncoding.DecodeString(s64)
	if err != nil || len(sig) != SignatureSize {
		t.Errorf("s64 does not carry a %d byte signature: %q", SignatureSize, s64)
	}
	if _, present := doc["s"]; present {
		t.Errorf("plain s field emitted alongside s64")
	}
}

func TestV2JSONDecodeKnownDocument(t *testing.T) {
	text := fmt.Sprintf(
		`{"v":2,"l":"http://example.org/","i":"keyid","c":[{"i":"account = 3735928559"}],"s64":%q}`,
		base64.RawURLEncoding.EncodeToString(knownSignatureV1WithCaveat[:]))
	m, err := Deserialize([]byte(text))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	want := &Macaroon{
		Location:   "http://example.org/",
		Identifier: "keyid",
		Caveats:    []Caveat{{ID: "account = 3735928559"}},
		Signature:  knownSignatureV1WithCaveat,
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("decoded macaroon mismatch:\n got %+v\nwant %+v", m, want)
	}
}

func TestV2JSONInvalidJSONRejected(t *testing.T) {
	_, err := Deserialize([]byte(`{"v":2,`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !IsKind(err, KindDecode) {
		t.Errorf("expected KindDecode, got %v", err)
	}
}

func TestV2JSONWrongVersionRejected(t *testing.T) {
	_, err := Deserialize([]byte(`{"v":3,"i":"keyid","s64":"AAAA"}`))
	if err == nil {
		t.Fatal("expected error for an unsupported version")
	}
	if !IsKind(err, KindDecode) {
		t.Errorf("expected KindDecode, got %v", err)
	}
}

func TestV2JSONDuplicateTwinFieldsRejected(t *testing.T) {
	text := fmt.Sprintf(`{"v":2,"i":"keyid","i64":"a2V5aWQ","s64":%q}`,
		base64.RawURLEncoding.EncodeToString(knownSignatureV1[:]))
	_, err := Deserialize([]byte(text))
	if err == nil {
		t.Fatal("expected error for duplicate twin fields")
	}
	if !IsKind(err, KindSequence) {
		t.Errorf("expected KindSequence, got %v", err)
	}
}

func TestV2JSONMissingSignatureRejected(t *testing.T) {
	_, err := Deserialize([]byte(`{"v":2,"i":"keyid"}`))
	if err == nil {
		t.Fatal("expected error for a missing signature")
	}
	if !IsKind(err, KindSequence) {
		t.Errorf("expected KindSequence, got %v", err)
	}
}

func TestV2JSONShortSignatureRejected(t *testing.T) {
	_, err := Deserialize([]byte(`{"v":2,"i":"keyid","s64":"AAAA"}`))
	if err == nil {
		t.Fatal("expected error for a short signature")
	}
	if !IsKind(err, KindSequence) {
		t.Errorf("expected KindSequence, got %v", err)
	}
}

func TestV2JSONBadBase64Rejected(t *testing.T) {
	_, err := Deserialize([]byte(`{"v":2,"i64":"%%%","s64":"AAAA"}`))
	if err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if !IsKind(err, KindDecode) {
		t.Errorf("expected KindDecode, got %v", err)
	}
}

func TestV2JSONNonUTF8ValueRejected(t *testing.T) {
	text := fmt.Sprintf(`{"v":2,"i64":%q,"s64":%q}`,
		base64.RawURLEncoding.EncodeToString([]byte{0xff, 0xfe}),
		base64.RawURLEncoding.EncodeToString(knownSignatureV1[:]))
	_, err := Deserialize([]byte(text))
	if err == nil {
		t.Fatal("expected error for a non-UTF-8 identifier")
	}
	if !IsKind(err, KindText) {
		t.Errorf("expected KindText, got %v", err)
	}
}

func TestV2JSONEmptyCaveatIDRejected(t *testing.T) {
	text := fmt.Sprintf(`{"v":2,"i":"keyid","c":[{"l":"https://a.example.org/"}],"s64":%q}`,
		base64.RawURLEncoding.EncodeToString(knownSignatureV1[:]))
	_, err := Deserialize([]byte(text))
	if err == nil {
		t.Fatal("expected error for a caveat without an identifier")
	}
	if !IsKind(err, KindSequence) {
		t.Errorf("expected KindSequence, got %v", err)
	}
}
