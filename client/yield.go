package client

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/qcloudiot/devicemqtt/internal/subs"
	"github.com/qcloudiot/devicemqtt/packet"
	"github.com/qcloudiot/devicemqtt/transport"
)

// tickBudget bounds a single Yield call's blocking read: long enough that a
// tight polling loop doesn't busy-spin, short enough that Yield returns
// promptly when nothing arrives. The read does not hold the write-buffer
// mutex, so Publish/Subscribe/Unsubscribe calls from other goroutines can
// send while it waits.
const tickBudget = 100 * time.Millisecond

// Yield drives the client for one tick: it services a reconnect attempt if
// disconnected, otherwise reads and dispatches at most one inbound packet,
// sends a keep-alive PINGREQ if due, and scans both ack queues for expired
// entries. The caller is expected to call Yield in a loop (spec §4.G). While
// connected, a call blocks for at most tickBudget of reading plus the writes
// it makes (a PINGREQ, a PUBACK); a reconnect attempt is bounded by the
// command timeout instead.
func (c *Client) Yield(ctx context.Context) error {
	if !c.IsConnected() {
		if !c.opts.AutoConnectEnable {
			return nil
		}
		reconnected, err := c.maybeReconnect(ctx)
		if err != nil {
			return newErr(KindAttemptingReconnect, "reconnect attempt failed", err)
		}
		if !reconnected {
			return newErr(KindAttemptingReconnect, "waiting for reconnect backoff", nil)
		}
		c.mu.Lock()
		justReconnected := c.justReconnected
		c.justReconnected = false
		c.mu.Unlock()
		if justReconnected {
			return newErr(KindReconnected, "session re-established", nil)
		}
		return nil
	}

	if err := c.maybePing(ctx); err != nil {
		return err
	}

	readCtx, cancel := context.WithTimeout(ctx, tickBudget)
	pkt, err := c.readOnePacket(readCtx)
	cancel()
	switch {
	case err == nil:
		c.dispatch(ctx, pkt)
	case errors.Is(err, transport.ErrNothingToRead):
		// nothing to do this tick
	default:
		c.logger.Printf("[READ_ERROR] conn_id=%s error=%v", c.connID, err)
		c.onTransportFailure()
		return newErr(KindTransportFailure, "read failed", err)
	}

	c.scanExpired()
	return nil
}

// deadlineReader adapts a Transport to io.Reader for packet.Unpack,
// translating the transport's non-fatal ErrNothingToRead into io.EOF so
// packet.FixedHeader.Unpack's very first byte read surfaces it unwrapped.
type deadlineReader struct {
	ctx  context.Context
	t    transport.Transport
	read int
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	n, err := r.t.Read(r.ctx, p)
	r.read += n
	if err == transport.ErrNothingToRead {
		return n, io.EOF
	}
	return n, err
}

func (c *Client) readOnePacket(ctx context.Context) (packet.Packet, error) {
	c.transportMu.Lock()
	tr := c.transport
	c.transportMu.Unlock()
	if tr == nil {
		return nil, newErr(KindNotConnected, "no transport", nil)
	}

	dr := &deadlineReader{ctx: ctx, t: tr}
	pkt, err := packet.Unpack(dr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, transport.ErrNothingToRead
		}
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.PacketsReceived.Inc()
		c.metrics.BytesReceived.Add(float64(dr.read))
	}
	return pkt, nil
}

// dispatch routes one inbound packet to its handler, spec §4.G's table.
func (c *Client) dispatch(ctx context.Context, pkt packet.Packet) {
	switch p := pkt.(type) {
	case *packet.PUBLISH:
		c.handlePublish(ctx, p)
	case *packet.PUBACK:
		c.handlePuback(p)
	case *packet.SUBACK:
		c.handleSuback(p)
	case *packet.UNSUBACK:
		c.handleUnsuback(p)
	case *packet.PINGRESP:
		c.mu.Lock()
		c.pingOutstanding = false
		sentAt := c.pingSentAt
		c.mu.Unlock()
		if c.metrics != nil && !sentAt.IsZero() {
			c.metrics.PingRTT.Observe(time.Since(sentAt).Seconds())
		}
	default:
		c.logger.Printf("[UNEXPECTED_PACKET] conn_id=%s kind=0x%X", c.connID, pkt.Kind())
	}
}

func (c *Client) handlePublish(ctx context.Context, p *packet.PUBLISH) {
	if p.QoS == 1 {
		if !c.dedup.SeenAndRecord(p.PacketID) {
			c.deliverPublish(p)
		}
		if err := c.send(ctx, &packet.PUBACK{PacketID: p.PacketID}); err != nil {
			c.logger.Printf("[PUBACK_SEND_FAILED] conn_id=%s packet_id=%d error=%v", c.connID, p.PacketID, err)
		}
		return
	}
	c.deliverPublish(p)
}

func (c *Client) deliverPublish(p *packet.PUBLISH) {
	msg := subs.InboundMessage{
		Topic:    p.Topic,
		Payload:  p.Payload,
		QoS:      p.QoS,
		Dup:      p.Dup != 0,
		Retain:   p.Retain != 0,
		PacketID: p.PacketID,
	}
	matches := c.subs.Match(p.Topic)
	if len(matches) == 0 {
		c.opts.EventHandler(Event{Kind: EventPublishReceivedWithoutHandler, Message: msg})
		return
	}
	for _, entry := range matches {
		entry.Handler(msg)
	}
}

func (c *Client) handlePuback(p *packet.PUBACK) {
	if _, ok := c.pubWait.Remove(p.PacketID); !ok {
		c.logger.Printf("[PUBACK_UNKNOWN] conn_id=%s packet_id=%d", c.connID, p.PacketID)
		return
	}
	if c.metrics != nil {
		c.metrics.PubWaitAck.Set(float64(c.pubWait.Len()))
	}
	c.opts.EventHandler(Event{Kind: EventPublishSuccess, PacketID: p.PacketID})
}

func (c *Client) handleSuback(p *packet.SUBACK) {
	entry, ok := c.subWait.Remove(p.PacketID)
	if !ok {
		c.logger.Printf("[SUBACK_UNKNOWN] conn_id=%s packet_id=%d", c.connID, p.PacketID)
		return
	}
	req, ok := entry.Subscription.(subscribeRequest)
	if !ok {
		c.logger.Printf("[SUBACK_FOR_UNSUBSCRIBE] conn_id=%s packet_id=%d", c.connID, p.PacketID)
		return
	}
	if c.metrics != nil {
		c.metrics.SubWaitAck.Set(float64(c.subWait.Len()))
	}

	granted := len(p.ReturnCodes) > 0 && p.ReturnCodes[0] != packet.GrantedFailure
	if !granted {
		c.opts.EventHandler(Event{Kind: EventSubscribeNack, PacketID: p.PacketID})
		return
	}
	if err := c.subs.Insert(subs.Entry{Filter: req.entry.Filter, QoS: p.ReturnCodes[0], Handler: req.entry.Handler}); err != nil {
		c.logger.Printf("[SUBSCRIPTION_TABLE_FULL] conn_id=%s filter=%s", c.connID, req.entry.Filter)
		c.opts.EventHandler(Event{Kind: EventSubscribeNack, PacketID: p.PacketID})
		return
	}
	c.opts.EventHandler(Event{Kind: EventSubscribeSuccess, PacketID: p.PacketID})
}

func (c *Client) handleUnsuback(p *packet.UNSUBACK) {
	if _, ok := c.subWait.Remove(p.PacketID); !ok {
		c.logger.Printf("[UNSUBACK_UNKNOWN] conn_id=%s packet_id=%d", c.connID, p.PacketID)
		return
	}
	c.opts.EventHandler(Event{Kind: EventUnsubscribeSuccess, PacketID: p.PacketID})
}

// scanExpired drains both ack queues of entries past their deadline and
// reports a timeout event for each, per spec §4.C.
func (c *Client) scanExpired() {
	now := time.Now()
	for _, e := range c.pubWait.Expired(now) {
		c.opts.EventHandler(Event{Kind: EventPublishTimeout, PacketID: e.PacketID})
	}
	for _, e := range c.subWait.Expired(now) {
		if _, ok := e.Subscription.(unsubscribeRequest); ok {
			c.opts.EventHandler(Event{Kind: EventUnsubscribeTimeout, PacketID: e.PacketID})
			continue
		}
		c.opts.EventHandler(Event{Kind: EventSubscribeTimeout, PacketID: e.PacketID})
	}
}
