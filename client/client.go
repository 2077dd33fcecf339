// Package client implements the MQTT 3.1.1 device client core: the session
// state machine, yield loop, and the public Construct/Publish/Subscribe/
// Unsubscribe/Yield/Destroy facade described by components F through J.
package client

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/qcloudiot/devicemqtt/internal/ackqueue"
	"github.com/qcloudiot/devicemqtt/internal/dedup"
	"github.com/qcloudiot/devicemqtt/internal/idgen"
	"github.com/qcloudiot/devicemqtt/internal/subs"
	"github.com/qcloudiot/devicemqtt/packet"
	"github.com/qcloudiot/devicemqtt/transport"
)

const (
	maxRepubNum  = 20 // MAX_REPUB_NUM: capacity of each ack queue
	writeBufSize = 2048
	readBufSize  = 2048
)

// Client is the single long-lived entity an embedding application owns: one
// MQTT session against one broker. A Client is safe for concurrent use —
// Publish/Subscribe/Unsubscribe may be called from any goroutine while
// another goroutine drives Yield.
type Client struct {
	device DeviceInfo
	opts   Options
	logger *log.Logger

	brokerURL string
	connID    string

	transportMu sync.Mutex // guards transport and status transitions together
	transport   transport.Transport
	status      status

	writeMu  sync.Mutex // serializes all outbound sends
	writeBuf []byte

	mu                     sync.Mutex // generic mutex: counters, flags, keep-alive timing
	pingOutstanding        bool
	pingSentAt             time.Time
	manualDisconnect       bool
	reconnectBackoff       time.Duration
	nextReconnectAt        time.Time
	keepAliveDeadline      time.Time
	justReconnected        bool
	reconnectedAtLeastOnce bool

	packetIDs *idgen.PacketIDGenerator
	subs      *subs.Registry
	pubWait   *ackqueue.Queue
	subWait   *ackqueue.Queue
	dedup     *dedup.Ring

	metrics *Metrics
}

// New constructs a Client and performs the initial CONNECT, spec §4.H.
// command_timeout (via WithCommandTimeout) must fall within
// [MinCommandTimeout, MaxCommandTimeout] or New fails with
// KindInvalidArgument before touching the network.
func New(device DeviceInfo, opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, o := range opts {
		o(&options)
	}
	if options.CommandTimeout < MinCommandTimeout || options.CommandTimeout > MaxCommandTimeout {
		return nil, newErr(KindInvalidArgument,
			fmt.Sprintf("command_timeout %s outside [%s, %s]", options.CommandTimeout, MinCommandTimeout, MaxCommandTimeout), nil)
	}
	if device.ProductID == "" || device.DeviceName == "" {
		return nil, newErr(KindInvalidArgument, "product_id and device_name are required", nil)
	}

	scheme := "mqtt"
	if options.TLSEnable {
		scheme = "mqtts"
	}

	c := &Client{
		device:           device,
		opts:             options,
		logger:           options.Logger,
		brokerURL:        fmt.Sprintf("%s://%s:%d", scheme, options.Host, options.Port),
		connID:           idgen.ConnID(),
		status:           statusDisconnected,
		reconnectBackoff: MinReconnectWait,
		packetIDs:        idgen.NewPacketIDGenerator(),
		subs:             subs.New(),
		pubWait:          ackqueue.New(maxRepubNum),
		subWait:          ackqueue.New(maxRepubNum),
		dedup:            dedup.New(),
		writeBuf:         make([]byte, writeBufSize),
		metrics:          NewMetrics(nil),
	}

	c.logger.Printf("[CLIENT_CREATED] product_id=%s device_name=%s broker=%s conn_id=%s",
		device.ProductID, device.DeviceName, c.brokerURL, c.connID)

	ctx, cancel := context.WithTimeout(context.Background(), options.CommandTimeout)
	defer cancel()
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Destroy tears the Client down: best-effort DISCONNECT if connected,
// closes the transport, and clears the subscription registry and both ack
// queues without reporting their pending entries as timeouts.
func (c *Client) Destroy() {
	c.mu.Lock()
	c.manualDisconnect = true
	c.mu.Unlock()

	if c.IsConnected() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.CommandTimeout)
		_ = c.send(ctx, &packet.DISCONNECT{})
		cancel()
	}
	c.transportMu.Lock()
	if c.transport != nil {
		_ = c.transport.Disconnect()
	}
	c.status = statusDisconnected
	c.transportMu.Unlock()

	for _, f := range c.subs.Filters() {
		c.subs.Remove(f)
	}
	// Every pending deadline lies at most CommandTimeout past now.
	drainBefore := time.Now().Add(c.opts.CommandTimeout)
	c.pubWait.Expired(drainBefore)
	c.subWait.Expired(drainBefore)
	c.logger.Printf("[CLIENT_DESTROYED] conn_id=%s", c.connID)
	c.opts.EventHandler(Event{Kind: EventClientDestroy})
}

// IsConnected reports whether the session currently believes it has an
// active, handshaked connection.
func (c *Client) IsConnected() bool {
	c.transportMu.Lock()
	defer c.transportMu.Unlock()
	return c.status == statusConnected
}

// GetDeviceInfo returns the device identity this Client was constructed
// with.
func (c *Client) GetDeviceInfo() DeviceInfo {
	return c.device
}

// GetCommandTimeout returns the command timeout this Client was
// constructed with, for callers building their own per-call contexts.
func (c *Client) GetCommandTimeout() time.Duration {
	return c.opts.CommandTimeout
}

// IsSubReady reports whether filter is ready to receive inbound messages:
// either an exact SUBACK-confirmed entry exists, or filter is itself a
// wildcard (the broker owns wildcard semantics, so a wildcard subscription
// in flight is treated as always-ready), per spec §4.H.
func (c *Client) IsSubReady(filter string) bool {
	if containsWildcard(filter) {
		return true
	}
	return c.subs.Has(filter)
}

func containsWildcard(filter string) bool {
	for _, r := range filter {
		if r == '+' || r == '#' {
			return true
		}
	}
	return false
}

// Publish sends an application message. QoS 0 sends immediately and
// returns packet id 0. QoS 1 acquires a fresh packet id, pushes a pending
// entry, and sends; if the send fails after the push, the entry is removed
// so it is never timed out spuriously.
func (c *Client) Publish(ctx context.Context, topicName string, qos byte, retain bool, payload []byte) (uint16, error) {
	if !c.IsConnected() {
		return 0, newErr(KindNotConnected, "publish requires an active session", nil)
	}

	var packetID uint16
	fh := &packet.FixedHeader{QoS: qos, Retain: boolToFlag(retain)}
	pub := &packet.PUBLISH{FixedHeader: fh, Topic: topicName, Payload: payload}

	if qos > 0 {
		packetID = c.packetIDs.Next()
		pub.PacketID = packetID
	}

	if qos == 1 {
		if err := c.pubWait.Push(ackqueue.Entry{
			PacketID: packetID,
			Payload:  payload,
			Deadline: time.Now().Add(c.opts.CommandTimeout),
		}); err != nil {
			return 0, newErr(KindResourceExhausted, "pub_wait_ack queue full", err)
		}
	}

	if err := c.send(ctx, pub); err != nil {
		if qos == 1 {
			c.pubWait.Remove(packetID)
		}
		return 0, err
	}
	if c.metrics != nil {
		c.metrics.PubWaitAck.Set(float64(c.pubWait.Len()))
	}
	return packetID, nil
}

func boolToFlag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Subscribe requests a subscription. It pushes a pending entry carrying the
// tentative SubscriptionEntry; SUBACK either commits it into the
// registry (component D) or discards it.
func (c *Client) Subscribe(ctx context.Context, filter string, qos byte, handler subs.MessageHandler) (uint16, error) {
	if !c.IsConnected() {
		return 0, newErr(KindNotConnected, "subscribe requires an active session", nil)
	}
	packetID := c.packetIDs.Next()
	entry := subs.Entry{Filter: filter, QoS: qos, Handler: handler}

	if err := c.subWait.Push(ackqueue.Entry{
		PacketID:     packetID,
		Deadline:     time.Now().Add(c.opts.CommandTimeout),
		Subscription: subscribeRequest{entry: entry},
	}); err != nil {
		return 0, newErr(KindResourceExhausted, "sub_wait_ack queue full", err)
	}

	sub := &packet.SUBSCRIBE{PacketID: packetID, Filters: []packet.TopicFilter{{Filter: filter, QoS: qos}}}
	if err := c.send(ctx, sub); err != nil {
		c.subWait.Remove(packetID)
		return 0, err
	}
	if c.metrics != nil {
		c.metrics.SubWaitAck.Set(float64(c.subWait.Len()))
	}
	return packetID, nil
}

// Unsubscribe removes filter from the local registry immediately (so new
// inbound messages stop dispatching before the broker confirms) and sends
// UNSUBSCRIBE. If filter has no local entry, it fails fast without sending.
func (c *Client) Unsubscribe(ctx context.Context, filter string) (uint16, error) {
	if !c.subs.Remove(filter) {
		return 0, newErr(KindSubscribeFailed, "no local subscription for filter "+filter, nil)
	}
	if !c.IsConnected() {
		return 0, newErr(KindNotConnected, "unsubscribe requires an active session", nil)
	}
	packetID := c.packetIDs.Next()
	if err := c.subWait.Push(ackqueue.Entry{
		PacketID:     packetID,
		Deadline:     time.Now().Add(c.opts.CommandTimeout),
		Subscription: unsubscribeRequest{filter: filter},
	}); err != nil {
		return 0, newErr(KindResourceExhausted, "sub_wait_ack queue full", err)
	}

	unsub := &packet.UNSUBSCRIBE{PacketID: packetID, Filters: []string{filter}}
	if err := c.send(ctx, unsub); err != nil {
		c.subWait.Remove(packetID)
		return 0, err
	}
	return packetID, nil
}

// subscribeRequest/unsubscribeRequest tag an ackqueue.Entry's Subscription
// field so the yield loop's SUBACK/UNSUBACK handling knows which operation
// is pending without a second lookup table.
type subscribeRequest struct{ entry subs.Entry }
type unsubscribeRequest struct{ filter string }

// send serializes and writes pkt, holding the write-buffer mutex for the
// entire sequence so bytes from any single outbound call are contiguous on
// the wire.
func (c *Client) send(ctx context.Context, pkt packet.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sendPacketLocked(ctx, pkt)
}

func (c *Client) sendPacketLocked(ctx context.Context, pkt packet.Packet) error {
	fw := packet.NewFixedWriter(c.writeBuf)
	if err := pkt.Pack(fw); err != nil {
		if err == packet.ErrBufferTooShort {
			return newErr(KindBufferTooShort, "packet exceeds write buffer", err)
		}
		return err
	}

	c.transportMu.Lock()
	tr := c.transport
	c.transportMu.Unlock()
	if tr == nil {
		return newErr(KindNotConnected, "no transport", nil)
	}

	n, err := tr.Write(ctx, fw.Bytes())
	if err != nil {
		c.logger.Printf("[WRITE_ERROR] conn_id=%s kind=0x%X error=%v", c.connID, pkt.Kind(), err)
		c.onTransportFailure()
		return newErr(KindTransportFailure, "write failed", err)
	}
	if c.metrics != nil {
		c.metrics.PacketsSent.Inc()
		c.metrics.BytesSent.Add(float64(n))
	}
	c.mu.Lock()
	c.keepAliveDeadline = time.Now().Add(c.opts.KeepAliveInterval)
	c.mu.Unlock()
	return nil
}
