package packet

import (
	"bytes"
	"io"
)

// DISCONNECT is the client's graceful connection close. Section 3.14. It
// carries no payload in 3.1.1; the broker must discard any will message on
// receipt of a clean DISCONNECT.
type DISCONNECT struct {
	*FixedHeader
}

func (pkt *DISCONNECT) Kind() byte { return 0xE }

func (pkt *DISCONNECT) Pack(w io.Writer) error {
	pkt.FixedHeader = &FixedHeader{Kind: 0xE}
	return pkt.FixedHeader.Pack(w)
}

func (pkt *DISCONNECT) Unpack(buf *bytes.Buffer) error {
	if buf.Len() != 0 {
		return ErrMalformedPacket
	}
	return nil
}
