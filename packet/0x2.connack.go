package packet

import (
	"bytes"
	"io"
)

// CONNACK is the broker's acknowledgement of a CONNECT. Section 3.2.
type CONNACK struct {
	*FixedHeader

	SessionPresent bool
	ReturnCode     ConnectReturnCode
}

func (pkt *CONNACK) Kind() byte { return 0x2 }

func (pkt *CONNACK) Pack(w io.Writer) error {
	var ackFlags byte
	if pkt.SessionPresent {
		ackFlags = 0x01
	}
	pkt.FixedHeader = &FixedHeader{Kind: 0x2, RemainingLength: 2}
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := w.Write([]byte{ackFlags, byte(pkt.ReturnCode)})
	return err
}

func (pkt *CONNACK) Unpack(buf *bytes.Buffer) error {
	if buf.Len() != 2 {
		return ErrMalformedPacket
	}
	b := buf.Bytes()
	if b[0]&0xFE != 0 {
		return ErrProtocolViolation // only bit 0 is defined
	}
	pkt.SessionPresent = b[0]&0x01 != 0
	pkt.ReturnCode = ConnectReturnCode(b[1])
	if pkt.ReturnCode > NotAuthorized {
		return ErrProtocolViolation
	}
	return nil
}
