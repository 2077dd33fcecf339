package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// SUBACK acknowledges a SUBSCRIBE, one return code per requested filter in
// the same order. A return code of GrantedFailure (0x80) means the broker
// refused that filter. Section 3.9.
type SUBACK struct {
	*FixedHeader

	PacketID    uint16
	ReturnCodes []byte
}

func (pkt *SUBACK) Kind() byte { return 0x9 }

func (pkt *SUBACK) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(i2b(pkt.PacketID))
	buf.Write(pkt.ReturnCodes)

	pkt.FixedHeader = &FixedHeader{Kind: 0x9, RemainingLength: uint32(buf.Len())}
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (pkt *SUBACK) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 3 {
		return ErrMalformedPacket
	}
	pkt.PacketID = binary.BigEndian.Uint16(buf.Next(2))
	if pkt.PacketID == 0 {
		return ErrProtocolViolation
	}
	pkt.ReturnCodes = append([]byte(nil), buf.Bytes()...)
	for _, code := range pkt.ReturnCodes {
		if code > 2 && code != GrantedFailure {
			return ErrProtocolViolation
		}
	}
	return nil
}
