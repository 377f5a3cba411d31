package macaroon

import (
	"fmt"
	"sort"
	"sync"
)

// Format names a wire encoding for macaroons.
type Format string

const (
	// FormatV1 is the original text format: a base64 envelope around a
	// stream of length-prefixed packets.
	FormatV1 Format = "v1"
	// FormatV2 is the compact binary format, transported as unpadded
	// URL-safe base64.
	FormatV2 Format = "v2"
	// FormatV2JSON is the JSON rendering of the V2 field set.
	FormatV2JSON Format = "v2j"
)

// Codec converts between a Macaroon and one wire encoding.
//
// Encode must never mutate the macaroon it is given, and Decode must
// build a fresh one. Implementations are registered with RegisterFormat;
// the codecs for the formats above register themselves at package load.
type Codec interface {
	Encode(m *Macaroon) (string, error)
	Decode(text []byte) (*Macaroon, error)
}

var (
	formatMu sync.RWMutex
	codecs   = map[Format]Codec{}
)

// RegisterFormat registers the codec for a format. A format can be
// registered once per process.
func RegisterFormat(f Format, c Codec) error {
	if f == "" {
		return newError(KindInternal, "format name is required")
	}
	if c == nil {
		return newError(KindInternal, fmt.Sprintf("format %q missing codec", f))
	}
	formatMu.Lock()
	defer formatMu.Unlock()
	if _, exists := codecs[f]; exists {
		return newError(KindInternal, fmt.Sprintf("format %q already registered", f))
	}
	codecs[f] = c
	return nil
}

// MustRegisterFormat is like RegisterFormat but panics on error.
func MustRegisterFormat(f Format, c Codec) {
	if err := RegisterFormat(f, c); err != nil {
		panic(err)
	}
}

// Formats returns the registered format names, sorted.
func Formats() []Format {
	formatMu.RLock()
	defer formatMu.RUnlock()
	out := make([]Format, 0, len(codecs))
	for f := range codecs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func lookupFormat(f Format) (Codec, bool) {
	formatMu.RLock()
	defer formatMu.RUnlock()
	c, ok := codecs[f]
	return c, ok
}

func init() {
	MustRegisterFormat(FormatV1, codecV1{})
	MustRegisterFormat(FormatV2, codecV2{})
	MustRegisterFormat(FormatV2JSON, codecV2JSON{})
}

// Serialize encodes m in the given format.
func Serialize(m *Macaroon, f Format) (string, error) {
	codec, ok := lookupFormat(f)
	if !ok {
		return "", newError(KindNotImplemented, fmt.Sprintf("no codec registered for format %q", f))
	}
	return codec.Encode(m)
}

// Deserialize decodes a macaroon in whichever format DetectFormat
// recognizes the input as.
func Deserialize(text []byte) (*Macaroon, error) {
	f := DetectFormat(text)
	codec, ok := lookupFormat(f)
	if !ok {
		return nil, newError(KindNotImplemented, fmt.Sprintf("no codec registered for format %q", f))
	}
	return codec.Decode(text)
}

// DeserializeString is Deserialize for tokens held in a string.
func DeserializeString(text string) (*Macaroon, error) {
	return Deserialize([]byte(text))
}

// DetectFormat classifies an encoded macaroon without decoding it:
// a JSON object is V2J, a leading V2 version byte (raw or behind
// base64) is V2, and everything else is V1. The empty input counts as
// V1; its packet stream has no signature packet, so decoding reports
// that rather than a detection failure.
func DetectFormat(text []byte) Format {
	if len(text) == 0 {
		return FormatV1
	}
	switch text[0] {
	case '{':
		return FormatV2JSON
	case binaryV2Version:
		return FormatV2
	}
	if raw, err := decodeBase64(text); err == nil && len(raw) > 0 && raw[0] == binaryV2Version {
		return FormatV2
	}
	return FormatV1
}
