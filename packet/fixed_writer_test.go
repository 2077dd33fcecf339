package packet

import "testing"

func TestFixedWriter_OverflowReturnsBufferTooShort(t *testing.T) {
	w := NewFixedWriter(make([]byte, 4))
	if _, err := w.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := w.Write([]byte{4, 5}); err != ErrBufferTooShort {
		t.Errorf("got %v, want ErrBufferTooShort", err)
	}
}

func TestFixedWriter_ResetReusesBuffer(t *testing.T) {
	w := NewFixedWriter(make([]byte, 4))
	w.Write([]byte{1, 2, 3, 4})
	w.Reset()
	if _, err := w.Write([]byte{5, 6}); err != nil {
		t.Fatalf("write after reset: %v", err)
	}
	if got := w.Bytes(); len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("Bytes() = %v, want [5 6]", got)
	}
}

func TestCONNECT_PackIntoFixedWriterTooSmall(t *testing.T) {
	pkt := &CONNECT{CleanSession: true, KeepAlive: 60, ClientID: "device-with-a-long-id"}
	w := NewFixedWriter(make([]byte, 4))
	if err := pkt.Pack(w); err != ErrBufferTooShort {
		t.Errorf("got %v, want ErrBufferTooShort", err)
	}
}
