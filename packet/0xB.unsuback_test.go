package packet

import (
	"bytes"
	"testing"
)

func TestUNSUBACK_PackUnpack(t *testing.T) {
	pkt := &UNSUBACK{PacketID: 8}
	var buf bytes.Buffer
	if err := pkt.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	fixed := &FixedHeader{}
	if err := fixed.Unpack(&buf); err != nil {
		t.Fatalf("FixedHeader.Unpack: %v", err)
	}
	got := &UNSUBACK{FixedHeader: fixed}
	if err := got.Unpack(&buf); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got.PacketID != pkt.PacketID {
		t.Errorf("PacketID = %d, want %d", got.PacketID, pkt.PacketID)
	}
}

func TestUNSUBACK_RejectsZeroPacketID(t *testing.T) {
	got := &UNSUBACK{FixedHeader: &FixedHeader{}}
	buf := bytes.NewBuffer([]byte{0x00, 0x00})
	if err := got.Unpack(buf); err != ErrProtocolViolation {
		t.Errorf("got %v, want ErrProtocolViolation", err)
	}
}
