package transport

import (
	"context"
	"net"
)

// FakeTransport adapts a net.Pipe() end to Transport for tests. The teacher
// itself tests over a real net.Listener, not net.Pipe(); this is grounded
// instead on gonzalop-mq's keepalive_test.go/auth_test.go, which wire a
// net.Pipe() end directly into a client struct's connection field for
// deterministic, allocation-free test fixtures.
type FakeTransport struct {
	*streamTransport
}

// NewFakeTransport wraps conn (one end of a net.Pipe()) as a Transport.
func NewFakeTransport(conn net.Conn) *FakeTransport {
	return &FakeTransport{streamTransport: newStreamTransport(conn)}
}
