package macaroon

import (
	"bytes"
	"strings"
	"testing"
)

func TestAppendParseSizeRoundTrip(t *testing.T) {
	for _, size := range []int{minPacketLen, 0x0021, 0x0100, 0x7fff, maxPacketLen} {
		header := appendSize(nil, size)
		if len(header) != headerLen {
			t.Fatalf("header for %#x is %d bytes", size, len(header))
		}
		got, ok := parseSize(header)
		if !ok || got != size {
			t.Errorf("size %#x round-tripped to %#x (ok=%v)", size, got, ok)
		}
	}
}

func TestParseSizeRejectsUppercaseHex(t *testing.T) {
	if _, ok := parseSize([]byte("00FF")); ok {
		t.Error("uppercase hex accepted in a length header")
	}
	if _, ok := parseSize([]byte("0x21")); ok {
		t.Error("non-hex byte accepted in a length header")
	}
}

func TestAppendPacketLayout(t *testing.T) {
	data, err := appendPacket(nil, "cid", []byte("account = 3735928559"))
	if err != nil {
		t.Fatalf("appendPacket: %v", err)
	}
	if want := "001dcid account = 3735928559\n"; string(data) != want {
		t.Errorf("packet layout mismatch:\n got %q\nwant %q", data, want)
	}
}

func TestAppendPacketRejectsOversizedValue(t *testing.T) {
	_, err := appendPacket(nil, "identifier", bytes.Repeat([]byte{'a'}, maxPacketLen))
	if err == nil {
		t.Fatal("expected error for a packet over the length cap")
	}
	if !IsKind(err, KindFraming) {
		t.Errorf("expected KindFraming, got %v", err)
	}
}

func TestSerializeRejectsOversizedField(t *testing.T) {
	m := &Macaroon{Identifier: strings.Repeat("a", maxPacketLen)}
	_, err := Serialize(m, FormatV1)
	if err == nil {
		t.Fatal("expected error for an oversized field")
	}
	if !IsKind(err, KindFraming) {
		t.Errorf("expected KindFraming, got %v", err)
	}
}

func TestParsePacketsEmptyStream(t *testing.T) {
	packets, err := parsePackets(nil)
	if err != nil {
		t.Fatalf("parsePackets(nil): %v", err)
	}
	if len(packets) != 0 {
		t.Errorf("expected zero packets, got %d", len(packets))
	}
}

func TestParsePacketTruncatedHeader(t *testing.T) {
	_, err := parsePackets([]byte("002"))
	if err == nil {
		t.Fatal("expected error for a truncated header")
	}
	if !IsKind(err, KindFraming) {
		t.Errorf("expected KindFraming, got %v", err)
	}
}

func TestParsePacketDeclaredBeyondBuffer(t *testing.T) {
	_, err := parsePackets([]byte("0040cid account\n"))
	if err == nil {
		t.Fatal("expected error for a length beyond the buffer")
	}
	if !IsKind(err, KindFraming) {
		t.Errorf("expected KindFraming, got %v", err)
	}
}

func TestParsePacketBelowMinimumLength(t *testing.T) {
	_, err := parsePackets([]byte("0003cid x\n"))
	if err == nil {
		t.Fatal("expected error for a length below the minimum")
	}
	if !IsKind(err, KindFraming) {
		t.Errorf("expected KindFraming, got %v", err)
	}
}

func TestParsePacketMissingNewline(t *testing.T) {
	_, err := parsePackets([]byte("0008cid xY"))
	if err == nil {
		t.Fatal("expected error for a packet without its newline")
	}
	if !IsKind(err, KindFraming) {
		t.Errorf("expected KindFraming, got %v", err)
	}
}

func TestParsePacketMissingSeparator(t *testing.T) {
	_, err := parsePackets([]byte("0007ab\n"))
	if err == nil {
		t.Fatal("expected error for a packet without a tag/value separator")
	}
	if !IsKind(err, KindKeyValue) {
		t.Errorf("expected KindKeyValue, got %v", err)
	}
}

// TestLengthHeaderCorruption flips every length header in a well-formed
// stream up and down by one. Any such corruption must surface as a
// framing error, never as a silently shifted parse.
func TestLengthHeaderCorruption(t *testing.T) {
	var stream []byte
	var err error
	for _, p := range [][2]string{
		{tagLocation, "http://example.org/"},
		{tagIdentifier, "keyid"},
		{tagCID, "account = 3735928559"},
		{tagSignature, sigValue(0x5a, SignatureSize)},
	} {
		if stream, err = appendPacket(stream, p[0], []byte(p[1])); err != nil {
			t.Fatalf("appendPacket: %v", err)
		}
	}
	if _, err := parsePackets(stream); err != nil {
		t.Fatalf("baseline stream does not parse: %v", err)
	}

	var offsets []int
	for off := 0; off < len(stream); {
		plen, ok := parseSize(stream[off:])
		if !ok {
			t.Fatalf("cannot walk baseline stream at %d", off)
		}
		offsets = append(offsets, off)
		off += plen
	}

	for _, off := range offsets {
		for _, delta := range []int{-1, +1} {
			corrupted := append([]byte(nil), stream...)
			plen, _ := parseSize(corrupted[off:])
			copy(corrupted[off:off+headerLen], appendSize(nil, plen+delta))
			_, err := parsePackets(corrupted)
			if err == nil {
				t.Errorf("header at %d adjusted by %+d parsed cleanly", off, delta)
				continue
			}
			if !IsKind(err, KindFraming) {
				t.Errorf("header at %d adjusted by %+d: expected KindFraming, got %v", off, delta, err)
			}
		}
	}
}
