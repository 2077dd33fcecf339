package packet

import (
	"bytes"
	"io"
)

// PINGREQ is the keep-alive heartbeat sent by the client. Section 3.12.
type PINGREQ struct {
	*FixedHeader
}

func (pkt *PINGREQ) Kind() byte { return 0xC }

func (pkt *PINGREQ) Pack(w io.Writer) error {
	pkt.FixedHeader = &FixedHeader{Kind: 0xC}
	return pkt.FixedHeader.Pack(w)
}

func (pkt *PINGREQ) Unpack(buf *bytes.Buffer) error {
	if buf.Len() != 0 {
		return ErrMalformedPacket
	}
	return nil
}
