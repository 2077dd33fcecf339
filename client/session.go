package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/qcloudiot/devicemqtt/packet"
	"github.com/qcloudiot/devicemqtt/transport"
)

// dialTransport is swapped out in tests to hand the session a FakeTransport
// without going through a real network dial.
var dialTransport = transport.Dial

// connect dials the transport, performs the CONNECT/CONNACK handshake, and
// on success resubscribes every locally-known filter if clean_session
// discarded the broker's session state. Spec §4.F: Disconnected →
// WaitingConnack → Connected.
func (c *Client) connect(ctx context.Context) error {
	c.transportMu.Lock()
	c.status = statusWaitingConnack
	c.transportMu.Unlock()

	var cfg *tls.Config
	if c.opts.TLSEnable {
		cfg = &tls.Config{ServerName: c.opts.Host}
	}
	tr, err := dialTransport(ctx, c.brokerURL, cfg)
	if err != nil {
		c.transportMu.Lock()
		c.status = statusDisconnected
		c.transportMu.Unlock()
		return newErr(KindTransportFailure, "dial failed", err)
	}

	c.transportMu.Lock()
	c.transport = tr
	c.transportMu.Unlock()

	connectPkt := &packet.CONNECT{
		FixedHeader:  &packet.FixedHeader{},
		CleanSession: c.opts.CleanSession,
		KeepAlive:    uint16(c.opts.KeepAliveInterval / time.Second),
		ClientID:     c.device.clientID(),
		Username:     c.device.ProductID,
		Password:     c.device.Credential,
	}
	if err := c.send(ctx, connectPkt); err != nil {
		tr.Disconnect()
		c.transportMu.Lock()
		c.status = statusDisconnected
		c.transportMu.Unlock()
		return err
	}

	pkt, err := c.readOnePacket(ctx)
	if err != nil {
		tr.Disconnect()
		c.transportMu.Lock()
		c.status = statusDisconnected
		c.transportMu.Unlock()
		return newErr(KindAckTimeout, "no CONNACK within command timeout", err)
	}
	connack, ok := pkt.(*packet.CONNACK)
	if !ok {
		tr.Disconnect()
		c.transportMu.Lock()
		c.status = statusDisconnected
		c.transportMu.Unlock()
		return newErr(KindProtocolViolation, fmt.Sprintf("expected CONNACK, got kind 0x%X", pkt.Kind()), nil)
	}
	if connack.ReturnCode != packet.Accepted {
		tr.Disconnect()
		c.transportMu.Lock()
		c.status = statusDisconnected
		c.transportMu.Unlock()
		return newErr(KindProtocolViolation, "broker refused connection: "+connack.ReturnCode.String(), nil)
	}

	c.transportMu.Lock()
	c.status = statusConnected
	c.transportMu.Unlock()

	c.mu.Lock()
	c.keepAliveDeadline = time.Now().Add(c.opts.KeepAliveInterval)
	c.pingOutstanding = false
	c.reconnectBackoff = MinReconnectWait
	wasReconnect := c.reconnectedAtLeastOnce
	c.mu.Unlock()

	c.logger.Printf("[CONNECTED] conn_id=%s client_id=%s clean_session=%v", c.connID, c.device.clientID(), c.opts.CleanSession)

	if c.opts.CleanSession {
		for _, entry := range c.subs.FiltersWithQoS() {
			c.resubscribe(ctx, entry.Filter, entry.QoS)
		}
	}

	if wasReconnect {
		c.mu.Lock()
		c.justReconnected = true
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.ReconnectTotal.Inc()
		}
		c.opts.EventHandler(Event{Kind: EventReconnect})
	}
	return nil
}

// resubscribe re-sends SUBSCRIBE for a filter the local registry already
// has a handler for, at the QoS it was originally granted, without
// disturbing the existing handler entry. No pending ack entry is pushed, so
// the yield loop logs the broker's SUBACK as [SUBACK_UNKNOWN] and drops it;
// the installed handler stays as it is whatever that SUBACK says.
func (c *Client) resubscribe(ctx context.Context, filter string, qos byte) {
	packetID := c.packetIDs.Next()
	sub := &packet.SUBSCRIBE{PacketID: packetID, Filters: []packet.TopicFilter{{Filter: filter, QoS: qos}}}
	if err := c.send(ctx, sub); err != nil {
		c.logger.Printf("[RESUBSCRIBE_FAILED] conn_id=%s filter=%s error=%v", c.connID, filter, err)
	}
}

// onTransportFailure marks a connected session Disconnected, arms the
// reconnect backoff timer, and emits EventDisconnect unless Destroy caused
// the drop. maybeReconnect acts on the timer only when auto-connect is
// enabled and the client was not destroyed. Spec §4.F reconnect policy:
// MinReconnectWait doubling to maxReconnectWait.
func (c *Client) onTransportFailure() {
	c.transportMu.Lock()
	wasConnected := c.status == statusConnected
	c.status = statusDisconnected
	c.transportMu.Unlock()

	if !wasConnected {
		return
	}

	c.mu.Lock()
	manual := c.manualDisconnect
	c.reconnectedAtLeastOnce = true
	c.nextReconnectAt = time.Now().Add(c.reconnectBackoff)
	c.mu.Unlock()

	if manual {
		return
	}
	c.logger.Printf("[DISCONNECTED] conn_id=%s", c.connID)
	c.opts.EventHandler(Event{Kind: EventDisconnect})
}

// maybeReconnect is called from the yield loop while Disconnected. It
// returns (true, nil) once a new session is established, (false, nil) if
// the backoff window has not elapsed yet, and (false, err) on a failed
// attempt (which also re-arms the backoff, doubled).
func (c *Client) maybeReconnect(ctx context.Context) (bool, error) {
	if !c.opts.AutoConnectEnable {
		return false, nil
	}
	c.mu.Lock()
	manual := c.manualDisconnect
	due := time.Now().After(c.nextReconnectAt) || c.nextReconnectAt.IsZero()
	c.mu.Unlock()
	if manual || !due {
		return false, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, c.opts.CommandTimeout)
	defer cancel()
	err := c.connect(connectCtx)
	if err != nil {
		c.mu.Lock()
		c.reconnectBackoff *= 2
		if c.reconnectBackoff > maxReconnectWait {
			c.reconnectBackoff = maxReconnectWait
		}
		c.nextReconnectAt = time.Now().Add(c.reconnectBackoff)
		c.mu.Unlock()
		return false, err
	}
	return true, nil
}

// maybePing sends a PINGREQ when the keep-alive deadline has elapsed and no
// ping is already outstanding. A second elapsed deadline with a ping still
// outstanding is treated as a dead connection.
func (c *Client) maybePing(ctx context.Context) error {
	c.mu.Lock()
	due := !c.keepAliveDeadline.IsZero() && time.Now().After(c.keepAliveDeadline)
	outstanding := c.pingOutstanding
	c.mu.Unlock()
	if !due {
		return nil
	}
	if outstanding {
		c.onTransportFailure()
		return newErr(KindTransportFailure, "PINGRESP not received before next keep-alive deadline", nil)
	}
	if err := c.send(ctx, &packet.PINGREQ{}); err != nil {
		return err
	}
	c.mu.Lock()
	c.pingOutstanding = true
	c.pingSentAt = time.Now()
	c.mu.Unlock()
	return nil
}
