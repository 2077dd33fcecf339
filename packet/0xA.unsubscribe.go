package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// UNSUBSCRIBE requests removal of one or more subscriptions. Section 3.10.
type UNSUBSCRIBE struct {
	*FixedHeader

	PacketID uint16
	Filters  []string
}

func (pkt *UNSUBSCRIBE) Kind() byte { return 0xA }

func (pkt *UNSUBSCRIBE) Pack(w io.Writer) error {
	if len(pkt.Filters) == 0 {
		return ErrProtocolViolation
	}
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(i2b(pkt.PacketID))
	for _, f := range pkt.Filters {
		buf.Write(s2b(f))
	}

	pkt.FixedHeader = &FixedHeader{Kind: 0xA, QoS: 1, RemainingLength: uint32(buf.Len())}
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (pkt *UNSUBSCRIBE) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.PacketID = binary.BigEndian.Uint16(buf.Next(2))
	if pkt.PacketID == 0 {
		return ErrProtocolViolation
	}
	for buf.Len() > 0 {
		filter, err := decodeUTF8[string](buf)
		if err != nil {
			return err
		}
		pkt.Filters = append(pkt.Filters, filter)
	}
	if len(pkt.Filters) == 0 {
		return ErrProtocolViolation
	}
	return nil
}
