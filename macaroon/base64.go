package macaroon

import (
	"bytes"
	"encoding/base64"
)

// Serialized macaroons are emitted in standard-alphabet padded base64,
// which is what the V1 format has always shipped. Ingestion is liberal:
// tokens in the wild arrive in either alphabet, padded or not, so
// decoding accepts all four combinations.

func encodeBase64(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeBase64(data []byte) ([]byte, error) {
	data = bytes.TrimRight(data, "=")
	enc := base64.RawStdEncoding
	if bytes.ContainsAny(data, "-_") {
		enc = base64.RawURLEncoding
	}
	out := make([]byte, enc.DecodedLen(len(data)))
	n, err := enc.Decode(out, data)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}
