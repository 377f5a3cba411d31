package macaroon

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// The V2 encoding is binary: a version byte, then varint-framed fields
// grouped into EOS-terminated sections. The header section holds the
// macaroon's location and identifier, each caveat gets its own section,
// an empty section closes the caveat list, and the signature field ends
// the buffer.
const binaryV2Version = 2

type fieldType int

// Field numbers as used in the V2 binary encoding. Within a section,
// fields must appear in strictly ascending order.
const (
	fieldEOS            fieldType = 0
	fieldLocation       fieldType = 1
	fieldIdentifier     fieldType = 2
	fieldVerificationID fieldType = 4
	fieldSignature      fieldType = 6
)

type packetV2 struct {
	field fieldType
	data  []byte
}

// codecV2 implements the compact binary format. Its text transport is
// unpadded URL-safe base64 of the binary image; a raw binary image is
// accepted on decode as well.
type codecV2 struct{}

func (codecV2) Encode(m *Macaroon) (string, error) {
	raw, err := m.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (codecV2) Decode(text []byte) (*Macaroon, error) {
	data := text
	if len(data) == 0 || data[0] != binaryV2Version {
		raw, err := decodeBase64(text)
		if err != nil {
			return nil, wrapError(KindDecode, "invalid base64 envelope", err)
		}
		data = raw
	}
	var m Macaroon
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &m, nil
}

// MarshalBinary returns the V2 binary image of m.
func (m *Macaroon) MarshalBinary() ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	data := []byte{binaryV2Version}
	if m.Location != "" {
		data = appendPacketV2(data, packetV2{fieldLocation, []byte(m.Location)})
	}
	data = appendPacketV2(data, packetV2{fieldIdentifier, []byte(m.Identifier)})
	data = appendEOSV2(data)
	for _, cav := range m.Caveats {
		if cav.Location != "" {
			data = appendPacketV2(data, packetV2{fieldLocation, []byte(cav.Location)})
		}
		data = appendPacketV2(data, packetV2{fieldIdentifier, []byte(cav.ID)})
		if cav.VerifierID != "" {
			data = appendPacketV2(data, packetV2{fieldVerificationID, []byte(cav.VerifierID)})
		}
		data = appendEOSV2(data)
	}
	data = appendEOSV2(data)
	data = appendPacketV2(data, packetV2{fieldSignature, m.Signature[:]})
	return data, nil
}

// UnmarshalBinary replaces m with the macaroon parsed from a V2 binary
// image.
func (m *Macaroon) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return newError(KindDecode, "empty buffer")
	}
	if data[0] != binaryV2Version {
		return newError(KindDecode, fmt.Sprintf("unknown version byte %#x", data[0]))
	}
	rest, header, err := parseSectionV2(data[1:])
	if err != nil {
		return err
	}
	var parsed Macaroon
	seenID := false
	for _, p := range header {
		switch p.field {
		case fieldLocation:
			if parsed.Location, err = fieldText(p); err != nil {
				return err
			}
		case fieldIdentifier:
			if parsed.Identifier, err = fieldText(p); err != nil {
				return err
			}
			seenID = true
		default:
			return newError(KindSequence, fmt.Sprintf("unexpected field %d in macaroon header", p.field))
		}
	}
	if !seenID {
		return newError(KindSequence, "macaroon header missing the identifier field")
	}
	for {
		var sec []packetV2
		rest, sec, err = parseSectionV2(rest)
		if err != nil {
			return err
		}
		if len(sec) == 0 {
			// Empty section: end of the caveat list.
			break
		}
		var cav Caveat
		for _, p := range sec {
			switch p.field {
			case fieldLocation:
				if cav.Location, err = fieldText(p); err != nil {
					return err
				}
			case fieldIdentifier:
				if cav.ID, err = fieldText(p); err != nil {
					return err
				}
			case fieldVerificationID:
				if cav.VerifierID, err = fieldText(p); err != nil {
					return err
				}
			default:
				return newError(KindSequence, fmt.Sprintf("unexpected field %d in caveat section", p.field))
			}
		}
		if cav.ID == "" {
			return newError(KindSequence, "caveat section missing a caveat identifier")
		}
		parsed.Caveats = append(parsed.Caveats, cav)
	}
	var sig packetV2
	rest, sig, err = parsePacketV2(rest)
	if err != nil {
		return err
	}
	if sig.field != fieldSignature {
		return newError(KindSequence, fmt.Sprintf("expected the signature field after the caveat sections, got field %d", sig.field))
	}
	if len(sig.data) < SignatureSize {
		return newError(KindSequence,
			fmt.Sprintf("signature field carries %d bytes, need at least %d", len(sig.data), SignatureSize))
	}
	copy(parsed.Signature[:], sig.data[:SignatureSize])
	if len(rest) != 0 {
		return newError(KindFraming, fmt.Sprintf("%d trailing bytes after the signature field", len(rest)))
	}
	*m = parsed
	return nil
}

func fieldText(p packetV2) (string, error) {
	if !utf8.Valid(p.data) {
		return "", newError(KindText, fmt.Sprintf("field %d value is not valid UTF-8", p.field))
	}
	return string(p.data), nil
}

// parseSectionV2 parses a run of packets terminated by an EOS packet.
func parseSectionV2(data []byte) ([]byte, []packetV2, error) {
	prevField := fieldType(-1)
	var packets []packetV2
	for {
		if len(data) == 0 {
			return nil, nil, newError(KindFraming, "section extends past the end of the buffer")
		}
		rest, p, err := parsePacketV2(data)
		if err != nil {
			return nil, nil, err
		}
		if p.field == fieldEOS {
			return rest, packets, nil
		}
		if p.field <= prevField {
			return nil, nil, newError(KindFraming, fmt.Sprintf("section fields out of order: %d after %d", p.field, prevField))
		}
		packets = append(packets, p)
		prevField = p.field
		data = rest
	}
}

// parsePacketV2 parses one field at the start of data:
//
//	fieldType(varint) payloadLen(varint) payload
//
// except EOS, which is the single zero byte.
func parsePacketV2(data []byte) ([]byte, packetV2, error) {
	data, ft, err := parseVarint(data)
	if err != nil {
		return nil, packetV2{}, err
	}
	p := packetV2{field: fieldType(ft)}
	if p.field == fieldEOS {
		return data, p, nil
	}
	data, payloadLen, err := parseVarint(data)
	if err != nil {
		return nil, packetV2{}, err
	}
	if payloadLen > len(data) {
		return nil, packetV2{}, newError(KindFraming, "field payload extends past the end of the buffer")
	}
	p.data = data[:payloadLen]
	return data[payloadLen:], p, nil
}

func parseVarint(data []byte) ([]byte, int, error) {
	val, n := binary.Uvarint(data)
	switch {
	case n > 0:
		if val > 0x7fffffff {
			return nil, 0, newError(KindFraming, "varint value out of range")
		}
		return data[n:], int(val), nil
	case n == 0:
		return nil, 0, newError(KindFraming, "varint extends past the end of the buffer")
	}
	return nil, 0, newError(KindFraming, "varint value out of range")
}

func appendPacketV2(data []byte, p packetV2) []byte {
	data = appendVarint(data, int(p.field))
	if p.field != fieldEOS {
		data = appendVarint(data, len(p.data))
		data = append(data, p.data...)
	}
	return data
}

func appendEOSV2(data []byte) []byte {
	return append(data, 0)
}

func appendVarint(data []byte, x int) []byte {
	var buf [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(buf[:], uint64(x))
	return append(data, buf[:n]...)
}
