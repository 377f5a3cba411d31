package macaroon

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// codecV1 implements the original macaroon text format: a base64
// envelope around a stream of length-prefixed packets, one field per
// packet, terminated by the signature packet.
type codecV1 struct{}

func (codecV1) Encode(m *Macaroon) (string, error) {
	if err := m.validate(); err != nil {
		return "", err
	}
	var data []byte
	var err error
	if data, err = appendPacket(data, tagLocation, []byte(m.Location)); err != nil {
		return "", err
	}
	if data, err = appendPacket(data, tagIdentifier, []byte(m.Identifier)); err != nil {
		return "", err
	}
	for _, cav := range m.Caveats {
		if data, err = appendPacket(data, tagCID, []byte(cav.ID)); err != nil {
			return "", err
		}
		if cav.VerifierID != "" {
			if data, err = appendPacket(data, tagVID, []byte(cav.VerifierID)); err != nil {
				return "", err
			}
		}
		if cav.Location != "" {
			if data, err = appendPacket(data, tagCL, []byte(cav.Location)); err != nil {
				return "", err
			}
		}
	}
	if data, err = appendPacket(data, tagSignature, m.Signature[:]); err != nil {
		return "", err
	}
	return encodeBase64(data), nil
}

func (codecV1) Decode(text []byte) (*Macaroon, error) {
	raw, err := decodeBase64(text)
	if err != nil {
		return nil, wrapError(KindDecode, "invalid base64 envelope", err)
	}
	packets, err := parsePackets(raw)
	if err != nil {
		return nil, err
	}
	return assemble(packets)
}

// assemble folds a flat packet stream into a macaroon. A caveat spans
// up to three consecutive packets (cid, then optional vid and cl), so
// the fold carries one caveat under construction; the next cid or the
// signature packet finalizes it.
func assemble(packets []packet) (*Macaroon, error) {
	var (
		m      Macaroon
		cur    Caveat
		sawSig bool
	)
	for _, p := range packets {
		switch p.tag {
		case tagLocation:
			text, err := packetText(p)
			if err != nil {
				return nil, err
			}
			m.Location = text
		case tagIdentifier:
			text, err := packetText(p)
			if err != nil {
				return nil, err
			}
			m.Identifier = text
		case tagCID:
			text, err := packetText(p)
			if err != nil {
				return nil, err
			}
			if text == "" {
				return nil, newError(KindSequence, "cid packet with an empty caveat identifier")
			}
			if cur.ID != "" {
				m.Caveats = append(m.Caveats, cur)
			}
			cur = Caveat{ID: text}
		case tagVID:
			text, err := packetText(p)
			if err != nil {
				return nil, err
			}
			if cur.ID == "" {
				return nil, newError(KindSequence, "vid packet with no caveat under construction")
			}
			cur.VerifierID = text
		case tagCL:
			text, err := packetText(p)
			if err != nil {
				return nil, err
			}
			if cur.ID == "" {
				return nil, newError(KindSequence, "cl packet with no caveat under construction")
			}
			cur.Location = text
		case tagSignature:
			if cur.ID != "" {
				m.Caveats = append(m.Caveats, cur)
				cur = Caveat{}
			}
			// Tolerate oversized signature values by keeping the first
			// SignatureSize bytes; anything shorter cannot be a signature.
			if len(p.value) < SignatureSize {
				return nil, newError(KindSequence,
					fmt.Sprintf("signature packet carries %d bytes, need at least %d", len(p.value), SignatureSize))
			}
			copy(m.Signature[:], p.value[:SignatureSize])
			sawSig = true
		default:
			return nil, newError(KindUnknownTag, fmt.Sprintf("unknown packet tag %q", p.tag))
		}
	}
	if !sawSig {
		return nil, newError(KindSequence, "missing terminal signature packet")
	}
	if cur.ID != "" {
		// A cid after the last signature packet: the caveat would sit
		// outside the signature chain.
		return nil, newError(KindSequence, "caveat after the terminal signature packet")
	}
	return &m, nil
}

func packetText(p packet) (string, error) {
	if !utf8.Valid(p.value) {
		return "", newError(KindText, fmt.Sprintf("%s packet value is not valid UTF-8", p.tag))
	}
	return strings.TrimSpace(string(p.value)), nil
}
