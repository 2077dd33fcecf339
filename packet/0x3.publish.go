package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// PUBLISH transports an application message, client-to-broker or
// broker-to-client. Section 3.3. This core only ever sets QoS 0 or 1 on
// packets it builds. The fixed-header parse rejects only QoS 3 (see
// FixedHeader.Unpack), so a decoded QoS 2 PUBLISH reaches here and is read
// like QoS 1, with a packet id.
type PUBLISH struct {
	*FixedHeader

	Topic    string
	PacketID uint16 // present only when QoS > 0
	Payload  []byte
}

func (pkt *PUBLISH) Kind() byte { return 0x3 }

func (pkt *PUBLISH) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(s2b(pkt.Topic))
	if pkt.QoS > 0 {
		buf.Write(i2b(pkt.PacketID))
	}
	buf.Write(pkt.Payload)

	fh := &FixedHeader{Kind: 0x3, Dup: pkt.Dup, QoS: pkt.QoS, Retain: pkt.Retain, RemainingLength: uint32(buf.Len())}
	pkt.FixedHeader = fh
	if err := fh.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (pkt *PUBLISH) Unpack(buf *bytes.Buffer) error {
	topic, err := decodeUTF8[string](buf)
	if err != nil {
		return err
	}
	pkt.Topic = topic
	if pkt.QoS > 0 {
		if buf.Len() < 2 {
			return ErrMalformedPacket
		}
		pkt.PacketID = binary.BigEndian.Uint16(buf.Next(2))
		if pkt.PacketID == 0 {
			return ErrProtocolViolation
		}
	}
	pkt.Payload = buf.Bytes()
	return nil
}
