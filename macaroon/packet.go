package macaroon

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// The V1 encoding is a flat sequence of "packets", one field per packet:
//
//	[4 lowercase hex digits: packet length, the digits themselves included]
//	[tag][space][value][newline]
//
// The four-digit header caps a packet at 0xffff bytes. A field that would
// exceed the cap is refused outright; wrapping the header would silently
// corrupt every later packet boundary.
type packet struct {
	tag   string
	value []byte
}

// V1 packet tags.
const (
	tagLocation   = "location"
	tagIdentifier = "identifier"
	tagCID        = "cid"
	tagVID        = "vid"
	tagCL         = "cl"
	tagSignature  = "signature"
)

const (
	headerLen    = 4
	maxPacketLen = 0xffff
	minPacketLen = headerLen + 2 // space and newline
)

var hexDigits = []byte("0123456789abcdef")

func appendSize(data []byte, size int) []byte {
	return append(data,
		hexDigits[size>>12],
		hexDigits[(size>>8)&0xf],
		hexDigits[(size>>4)&0xf],
		hexDigits[size&0xf],
	)
}

func parseSize(data []byte) (int, bool) {
	d0, ok0 := asciiHex(data[0])
	d1, ok1 := asciiHex(data[1])
	d2, ok2 := asciiHex(data[2])
	d3, ok3 := asciiHex(data[3])
	return d0<<12 + d1<<8 + d2<<4 + d3, ok0 && ok1 && ok2 && ok3
}

func asciiHex(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b) - '0', true
	case b >= 'a' && b <= 'f':
		return int(b) - 'a' + 0xa, true
	}
	return 0, false
}

// appendPacket frames one packet onto data.
func appendPacket(data []byte, tag string, value []byte) ([]byte, error) {
	plen := headerLen + len(tag) + 1 + len(value) + 1
	if plen > maxPacketLen {
		return nil, newError(KindFraming,
			fmt.Sprintf("packet for tag %q is %d bytes, over the %d limit", tag, plen, maxPacketLen))
	}
	data = appendSize(data, plen)
	data = append(data, tag...)
	data = append(data, ' ')
	data = append(data, value...)
	data = append(data, '\n')
	return data, nil
}

// parsePackets splits a V1 packet stream into its packets. An empty
// stream is valid and yields no packets. Packet count is unbounded in
// the encoding, so this is a flat loop over the buffer, never recursion.
func parsePackets(data []byte) ([]packet, error) {
	var packets []packet
	for len(data) > 0 {
		p, rest, err := parsePacket(data)
		if err != nil {
			return nil, err
		}
		packets = append(packets, p)
		data = rest
	}
	return packets, nil
}

func parsePacket(data []byte) (packet, []byte, error) {
	if len(data) < headerLen {
		return packet{}, nil, newError(KindFraming,
			fmt.Sprintf("packet header truncated: %d bytes remain", len(data)))
	}
	plen, ok := parseSize(data)
	if !ok {
		return packet{}, nil, newError(KindFraming,
			fmt.Sprintf("length header %q is not lowercase hex", data[:headerLen]))
	}
	if plen < minPacketLen {
		return packet{}, nil, newError(KindFraming,
			fmt.Sprintf("length header declares %d bytes, below the %d minimum", plen, minPacketLen))
	}
	if plen > len(data) {
		return packet{}, nil, newError(KindFraming,
			fmt.Sprintf("length header declares %d bytes but only %d remain", plen, len(data)))
	}
	body := data[headerLen:plen]
	if body[len(body)-1] != '\n' {
		return packet{}, nil, newError(KindFraming, "packet does not end in a newline")
	}
	body = body[:len(body)-1]
	i := bytes.IndexByte(body, ' ')
	if i < 0 {
		return packet{}, nil, newError(KindKeyValue, "packet has no space separating tag from value")
	}
	tag := body[:i]
	if !utf8.Valid(tag) {
		return packet{}, nil, newError(KindText, "packet tag is not valid UTF-8")
	}
	return packet{tag: string(tag), value: body[i+1:]}, data[plen:], nil
}
