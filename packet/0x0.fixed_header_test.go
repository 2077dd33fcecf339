package packet

import (
	"bytes"
	"testing"
)

func TestFixedHeader_PackUnpack(t *testing.T) {
	cases := []struct {
		name   string
		header FixedHeader
	}{
		{"connect", FixedHeader{Kind: 0x1, RemainingLength: 0}},
		{"publish-qos1", FixedHeader{Kind: 0x3, QoS: 1, RemainingLength: 10}},
		{"publish-large", FixedHeader{Kind: 0x3, RemainingLength: 2097151}},
		{"subscribe", FixedHeader{Kind: 0x8, QoS: 1, RemainingLength: 20}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.header.Pack(&buf); err != nil {
				t.Fatalf("Pack: %v", err)
			}
			got := &FixedHeader{}
			if err := got.Unpack(&buf); err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			if *got != tc.header {
				t.Errorf("got %+v, want %+v", got, tc.header)
			}
		})
	}
}

func TestFixedHeader_ReservedFlagsRejected(t *testing.T) {
	cases := []struct {
		name string
		b    byte
	}{
		{"connect-dup-set", 0x18},
		{"subscribe-qos0", 0x80},
		{"pingreq-flags-set", 0xC1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := bytes.NewBuffer([]byte{tc.b, 0x00})
			h := &FixedHeader{}
			if err := h.Unpack(buf); err != ErrProtocolViolation {
				t.Errorf("got %v, want ErrProtocolViolation", err)
			}
		})
	}
}

func TestFixedHeader_RemainingLengthBounds(t *testing.T) {
	if _, err := encodeLength(268435455); err != nil {
		t.Errorf("max valid length should encode: %v", err)
	}
	if _, err := encodeLength(268435456); err == nil {
		t.Error("length above max should fail to encode")
	}
}

func TestDecodeLength_RejectsUnterminatedVarint(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if _, err := decodeLength(buf); err != ErrMalformedPacket {
		t.Errorf("got %v, want ErrMalformedPacket", err)
	}
}

func TestFixedHeader_UnpackShortRead(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	h := &FixedHeader{}
	if err := h.Unpack(buf); err == nil {
		t.Error("Unpack on empty reader should fail")
	}
}
