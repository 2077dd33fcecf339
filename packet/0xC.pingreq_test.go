package packet

import (
	"bytes"
	"testing"
)

func TestPINGREQ_PackUnpack(t *testing.T) {
	pkt := &PINGREQ{}
	var buf bytes.Buffer
	if err := pkt.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if got := buf.Bytes(); !bytes.Equal(got, []byte{0xC0, 0x00}) {
		t.Errorf("encoded = % x, want c0 00", got)
	}
	fixed := &FixedHeader{}
	if err := fixed.Unpack(&buf); err != nil {
		t.Fatalf("FixedHeader.Unpack: %v", err)
	}
	got := &PINGREQ{FixedHeader: fixed}
	if err := got.Unpack(&buf); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
}

func TestPINGREQ_RejectsNonEmptyBody(t *testing.T) {
	got := &PINGREQ{}
	if err := got.Unpack(bytes.NewBuffer([]byte{0x01})); err != ErrMalformedPacket {
		t.Errorf("got %v, want ErrMalformedPacket", err)
	}
}
