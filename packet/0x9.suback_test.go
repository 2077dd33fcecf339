package packet

import (
	"bytes"
	"testing"
)

func TestSUBACK_PackUnpack(t *testing.T) {
	pkt := &SUBACK{PacketID: 5, ReturnCodes: []byte{0, 1, GrantedFailure}}
	var buf bytes.Buffer
	if err := pkt.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	fixed := &FixedHeader{}
	if err := fixed.Unpack(&buf); err != nil {
		t.Fatalf("FixedHeader.Unpack: %v", err)
	}
	got := &SUBACK{FixedHeader: fixed}
	if err := got.Unpack(&buf); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got.PacketID != pkt.PacketID || !bytes.Equal(got.ReturnCodes, pkt.ReturnCodes) {
		t.Errorf("got %+v, want %+v", got, pkt)
	}
}

func TestSUBACK_RejectsInvalidReturnCode(t *testing.T) {
	got := &SUBACK{FixedHeader: &FixedHeader{}}
	buf := bytes.NewBuffer(append(i2b(1), 0x05))
	if err := got.Unpack(buf); err != ErrProtocolViolation {
		t.Errorf("got %v, want ErrProtocolViolation", err)
	}
}

func TestSUBACK_TooShort(t *testing.T) {
	got := &SUBACK{FixedHeader: &FixedHeader{}}
	buf := bytes.NewBuffer([]byte{0x00, 0x01})
	if err := got.Unpack(buf); err != ErrMalformedPacket {
		t.Errorf("got %v, want ErrMalformedPacket", err)
	}
}
