package packet

import (
	"bytes"
	"sync"
)

// scratchBufCap sizes each pooled Buffer's initial capacity to the core's
// write_buf framing size (client.writeBufSize), so packing a single
// control packet — the common case — never grows the underlying slice
// past what the caller's FixedWriter can hold anyway.
const scratchBufCap = 2048

type Buffer struct {
	pool *sync.Pool
}

func newBuffer() *Buffer {
	return &Buffer{
		pool: &sync.Pool{
			New: func() any { return bytes.NewBuffer(make([]byte, 0, scratchBufCap)) },
		},
	}
}

func (b *Buffer) Get() *bytes.Buffer {
	return b.pool.Get().(*bytes.Buffer)
}

func (b *Buffer) Put(buf *bytes.Buffer) {
	buf.Reset()
	b.pool.Put(buf)
}

var buffer = newBuffer()

func GetBuffer() *bytes.Buffer {
	return buffer.Get()
}

func PutBuffer(buf *bytes.Buffer) {
	buffer.Put(buf)
}
