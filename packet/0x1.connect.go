package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

// CONNECT is the first packet a client sends after opening the network
// connection. Section 3.1. This codec never emits a Will (the core has no
// Will support, per spec non-goals), so WillTopic/WillPayload are decode
// only and ignored by Pack.
type CONNECT struct {
	*FixedHeader

	CleanSession bool
	KeepAlive    uint16
	ClientID     string
	Username     string
	Password     string

	WillTopic   string
	WillPayload []byte
}

func (pkt *CONNECT) Kind() byte { return 0x1 }

func (pkt *CONNECT) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(NAME)
	buf.WriteByte(VERSION311)

	var flags byte
	if pkt.Username != "" {
		flags |= 0x80
	}
	if pkt.Password != "" {
		flags |= 0x40
	}
	if pkt.CleanSession {
		flags |= 0x02
	}
	buf.WriteByte(flags)
	buf.Write(i2b(pkt.KeepAlive))

	buf.Write(s2b(pkt.ClientID))
	if pkt.Username != "" {
		buf.Write(s2b(pkt.Username))
	}
	if pkt.Password != "" {
		buf.Write(s2b(pkt.Password))
	}

	pkt.FixedHeader = &FixedHeader{Kind: 0x1, RemainingLength: uint32(buf.Len())}
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (pkt *CONNECT) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 10 {
		return ErrMalformedPacket
	}
	name, err := decodeUTF8[[]byte](buf)
	if err != nil {
		return err
	}
	if !bytes.Equal(name, NAME[2:]) {
		return ErrProtocolViolation
	}
	level, err := buf.ReadByte()
	if err != nil {
		return ErrMalformedPacket
	}
	if level != VERSION311 {
		return ErrProtocolViolation
	}
	flags, err := buf.ReadByte()
	if err != nil {
		return ErrMalformedPacket
	}
	if flags&0x01 != 0 {
		return ErrProtocolViolation // reserved bit must be 0
	}
	pkt.CleanSession = flags&0x02 != 0
	willFlag := flags&0x04 != 0
	userFlag := flags&0x80 != 0
	passFlag := flags&0x40 != 0

	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.KeepAlive = binary.BigEndian.Uint16(buf.Next(2))

	clientID, err := decodeUTF8[string](buf)
	if err != nil {
		return err
	}
	pkt.ClientID = clientID

	if willFlag {
		topic, err := decodeUTF8[string](buf)
		if err != nil {
			return err
		}
		payload, err := decodeUTF8[[]byte](buf)
		if err != nil {
			return err
		}
		pkt.WillTopic, pkt.WillPayload = topic, payload
	}
	if userFlag {
		user, err := decodeUTF8[string](buf)
		if err != nil {
			return err
		}
		pkt.Username = user
	}
	if passFlag {
		pass, err := decodeUTF8[string](buf)
		if err != nil {
			return err
		}
		pkt.Password = pass
	}
	return nil
}
