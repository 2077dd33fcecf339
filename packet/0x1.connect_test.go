package packet

import (
	"bytes"
	"testing"
)

func TestCONNECT_PackUnpack(t *testing.T) {
	cases := []struct {
		name string
		pkt  CONNECT
	}{
		{"clean-session-no-auth", CONNECT{CleanSession: true, KeepAlive: 60, ClientID: "dev-1"}},
		{"with-credentials", CONNECT{CleanSession: false, KeepAlive: 30, ClientID: "dev-2", Username: "u", Password: "p"}},
		{"empty-client-id", CONNECT{CleanSession: true, KeepAlive: 120, ClientID: ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.pkt.Pack(&buf); err != nil {
				t.Fatalf("Pack: %v", err)
			}

			fixed := &FixedHeader{}
			if err := fixed.Unpack(&buf); err != nil {
				t.Fatalf("FixedHeader.Unpack: %v", err)
			}

			got := &CONNECT{FixedHeader: fixed}
			if err := got.Unpack(&buf); err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			if got.CleanSession != tc.pkt.CleanSession || got.KeepAlive != tc.pkt.KeepAlive ||
				got.ClientID != tc.pkt.ClientID || got.Username != tc.pkt.Username || got.Password != tc.pkt.Password {
				t.Errorf("got %+v, want %+v", got, tc.pkt)
			}
		})
	}
}

func TestCONNECT_RejectsWrongProtocolName(t *testing.T) {
	pkt := &CONNECT{CleanSession: true, ClientID: "x"}
	var buf bytes.Buffer
	if err := pkt.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	fixed := &FixedHeader{}
	if err := fixed.Unpack(&buf); err != nil {
		t.Fatalf("FixedHeader.Unpack: %v", err)
	}
	body := buf.Bytes()
	body[3] = 'X' // corrupt the "MQTT" name

	got := &CONNECT{FixedHeader: fixed}
	if err := got.Unpack(bytes.NewBuffer(body)); err != ErrProtocolViolation {
		t.Errorf("got %v, want ErrProtocolViolation", err)
	}
}

func TestCONNECT_TruncatedBuffer(t *testing.T) {
	got := &CONNECT{FixedHeader: &FixedHeader{}}
	if err := got.Unpack(bytes.NewBuffer([]byte{0x00, 0x02})); err != ErrMalformedPacket {
		t.Errorf("got %v, want ErrMalformedPacket", err)
	}
}
