package client

import (
	"context"
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/qcloudiot/devicemqtt/packet"
	"github.com/qcloudiot/devicemqtt/transport"
)

// fakeBroker is a minimal broker-side peer over one end of a net.Pipe().
// The teacher's own client_test.go tests through DialContext injection and
// direct struct-field assertions, not net.Pipe(); this fixture is grounded
// instead on gonzalop-mq's keepalive_test.go/auth_test.go, which script a
// peer goroutine over a net.Pipe() end to drive a client through scripted
// protocol exchanges.
type fakeBroker struct {
	t    *testing.T
	conn net.Conn
}

func (b *fakeBroker) readPacket() packet.Packet {
	b.t.Helper()
	pkt, err := packet.Unpack(b.conn)
	if err != nil {
		b.t.Fatalf("fakeBroker: read: %v", err)
	}
	return pkt
}

func (b *fakeBroker) writePacket(pkt packet.Packet) {
	b.t.Helper()
	if err := pkt.Pack(b.conn); err != nil {
		b.t.Fatalf("fakeBroker: write: %v", err)
	}
}

// acceptHandshake reads the inbound CONNECT and replies with a CONNACK
// carrying returnCode.
func (b *fakeBroker) acceptHandshake(returnCode packet.ConnectReturnCode) {
	b.t.Helper()
	pkt := b.readPacket()
	if _, ok := pkt.(*packet.CONNECT); !ok {
		b.t.Fatalf("fakeBroker: expected CONNECT, got kind 0x%X", pkt.Kind())
	}
	b.writePacket(&packet.CONNACK{ReturnCode: returnCode})
}

// newTestClient wires dialTransport to hand out one end of a net.Pipe(),
// runs brokerFn as the broker side concurrently with the blocking New()
// call (brokerFn is expected to call acceptHandshake first), and returns
// the constructed Client plus the fakeBroker for further scripted
// interaction in the test body.
func newTestClient(t *testing.T, opts []Option, brokerFn func(*fakeBroker)) (*Client, *fakeBroker) {
	t.Helper()
	clientConn, brokerConn := net.Pipe()

	origDial := dialTransport
	dialTransport = func(ctx context.Context, rawURL string, cfg *tls.Config) (transport.Transport, error) {
		return transport.NewFakeTransport(clientConn), nil
	}
	t.Cleanup(func() { dialTransport = origDial })

	broker := &fakeBroker{t: t, conn: brokerConn}
	brokerDone := make(chan struct{})
	go func() {
		defer close(brokerDone)
		brokerFn(broker)
	}()

	baseOpts := append([]Option{
		WithCommandTimeout(2 * time.Second),
		WithTLS(false),
		WithAutoConnect(true),
	}, opts...)

	c, err := New(DeviceInfo{ProductID: "PRODUCT1", DeviceName: "device-01"}, baseOpts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		brokerConn.Close()
		clientConn.Close()
	})
	<-brokerDone
	return c, broker
}
