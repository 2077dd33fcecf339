package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// TopicFilter pairs a subscription filter with the QoS requested for it.
type TopicFilter struct {
	Filter string
	QoS    byte
}

// SUBSCRIBE requests one or more subscriptions. Section 3.8.
type SUBSCRIBE struct {
	*FixedHeader

	PacketID uint16
	Filters  []TopicFilter
}

func (pkt *SUBSCRIBE) Kind() byte { return 0x8 }

func (pkt *SUBSCRIBE) Pack(w io.Writer) error {
	if len(pkt.Filters) == 0 {
		return ErrProtocolViolation
	}
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(i2b(pkt.PacketID))
	for _, f := range pkt.Filters {
		buf.Write(s2b(f.Filter))
		buf.WriteByte(f.QoS)
	}

	pkt.FixedHeader = &FixedHeader{Kind: 0x8, QoS: 1, RemainingLength: uint32(buf.Len())}
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (pkt *SUBSCRIBE) Unpack(buf *bytes.Buffer) error {
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
		qos, err := buf.ReadByte()
		if err != nil {
			return ErrMalformedPacket
		}
		if qos > 2 {
			return ErrProtocolViolation
		}
		pkt.Filters = append(pkt.Filters, TopicFilter{Filter: filter, QoS: qos})
	}
	if len(pkt.Filters) == 0 {
		return ErrProtocolViolation
	}
	return nil
}
