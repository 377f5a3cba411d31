package macaroon

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// The V2J encoding is the JSON rendering of the V2 field set. Model
// values are text and are emitted plain; on decode each field also
// accepts a base64 "64" twin, which other encoders use for values they
// choose not to embed directly. The signature is binary and is always
// carried in s64.
type macaroonJSONV2 struct {
	Version      int            `json:"v"`
	Location     string         `json:"l,omitempty"`
	Identifier   string         `json:"i,omitempty"`
	Identifier64 string         `json:"i64,omitempty"`
	Caveats      []caveatJSONV2 `json:"c,omitempty"`
	Signature    string         `json:"s,omitempty"`
	Signature64  string         `json:"s64,omitempty"`
}

type caveatJSONV2 struct {
	CID      string `json:"i,omitempty"`
	CID64    string `json:"i64,omitempty"`
	VID      string `json:"v,omitempty"`
	VID64    string `json:"v64,omitempty"`
	Location string `json:"l,omitempty"`
}

type codecV2JSON struct{}

func (codecV2JSON) Encode(m *Macaroon) (string, error) {
	if err := m.validate(); err != nil {
		return "", err
	}
	out := macaroonJSONV2{
		Version:     binaryV2Version,
		Location:    m.Location,
		Identifier:  m.Identifier,
		Signature64: base64.RawURLEncoding.EncodeToString(m.Signature[:]),
	}
	for _, cav := range m.Caveats {
		out.Caveats = append(out.Caveats, caveatJSONV2{
			CID:      cav.ID,
			VID:      cav.VerifierID,
			Location: cav.Location,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", wrapError(KindInternal, "cannot marshal JSON", err)
	}
	return string(data), nil
}

func (codecV2JSON) Decode(text []byte) (*Macaroon, error) {
	var in macaroonJSONV2
	if err := json.Unmarshal(text, &in); err != nil {
		return nil, wrapError(KindDecode, "invalid JSON envelope", err)
	}
	if in.Version != binaryV2Version {
		return nil, newError(KindDecode, fmt.Sprintf("unsupported JSON macaroon version %d", in.Version))
	}
	var m Macaroon
	m.Location = in.Location
	var err error
	if m.Identifier, err = modelValue("i", in.Identifier, in.Identifier64); err != nil {
		return nil, err
	}
	for n, jc := range in.Caveats {
		var cav Caveat
		if cav.ID, err = modelValue("c.i", jc.CID, jc.CID64); err != nil {
			return nil, err
		}
		if cav.ID == "" {
			return nil, newError(KindSequence, fmt.Sprintf("caveat %d has an empty identifier", n))
		}
		if cav.VerifierID, err = modelValue("c.v", jc.VID, jc.VID64); err != nil {
			return nil, err
		}
		cav.Location = jc.Location
		m.Caveats = append(m.Caveats, cav)
	}
	sig, err := modelValue("s", in.Signature, in.Signature64)
	if err != nil {
		return nil, err
	}
	if in.Signature == "" && in.Signature64 == "" {
		return nil, newError(KindSequence, "missing signature field")
	}
	if len(sig) < SignatureSize {
		return nil, newError(KindSequence,
			fmt.Sprintf("signature field carries %d bytes, need at least %d", len(sig), SignatureSize))
	}
	copy(m.Signature[:], sig[:SignatureSize])
	return &m, nil
}

// modelValue resolves a plain/base64 twin pair: at most one of the two
// fields may be set, and the value must come out as text.
func modelValue(name, plain, b64 string) (string, error) {
	if plain != "" && b64 != "" {
		return "", newError(KindSequence, fmt.Sprintf("fields %q and %q are both set", name, name+"64"))
	}
	if b64 == "" {
		return plain, nil
	}
	raw, err := decodeBase64([]byte(b64))
	if err != nil {
		return "", wrapError(KindDecode, fmt.Sprintf("invalid base64 in field %q", name+"64"), err)
	}
	if name != "s" && !utf8.Valid(raw) {
		return "", newError(KindText, fmt.Sprintf("field %q does not decode to valid UTF-8", name+"64"))
	}
	return string(raw), nil
}
