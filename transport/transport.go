// Package transport implements the core's abstract byte-stream collaborator
// (component B): connect, bounded read/write, disconnect, is_connected, over
// plain TCP, TLS, or WebSocket.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNothingToRead is the distinct, non-fatal result of a bounded Read that
// hit its deadline without any bytes becoming available. The yield loop
// treats it as "poll again later", not as a session failure.
var ErrNothingToRead = errors.New("transport: nothing to read")

// Transport is the abstract byte-stream the session state machine drives.
// Every method is blocking, bounded by ctx's deadline.
type Transport interface {
	// Read fills buf with at least one byte and returns the count read, or
	// (0, ErrNothingToRead) if ctx expires before any byte arrives. Any
	// other error is fatal for the current session.
	Read(ctx context.Context, buf []byte) (int, error)

	// Write sends buf in full or returns a fatal error. A partial write
	// followed by a fatal error returns the partial count alongside it.
	Write(ctx context.Context, buf []byte) (int, error)

	// Disconnect closes the underlying connection. Idempotent.
	Disconnect() error

	// IsConnected reports whether the transport believes it still holds a
	// live connection. It does not perform I/O.
	IsConnected() bool
}

// Dial opens a Transport to rawURL. Recognized schemes: mqtt/tcp (plain
// net.Dialer), mqtts/tls (tls.DialWithDialer), ws/wss
// (gorilla/websocket, binary frames). cfg is used only for the tls/mqtts
// and wss schemes; it may be nil to accept defaults.
func Dial(ctx context.Context, rawURL string, cfg *tls.Config) (Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "mqtt", "tcp", "":
		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return newStreamTransport(conn), nil

	case "mqtts", "tls":
		dialer := &net.Dialer{}
		conn, err := tls.DialWithDialer(dialer, "tcp", u.Host, cfg)
		if err != nil {
			return nil, err
		}
		return newStreamTransport(conn), nil

	case "ws", "wss":
		path := u.Path
		if path == "" {
			path = "/mqtt"
		}
		dialer := websocket.Dialer{
			TLSClientConfig:  cfg,
			HandshakeTimeout: 10 * time.Second,
			Subprotocols:     []string{"mqtt"},
		}
		wsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}).String()
		conn, _, err := dialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			return nil, err
		}
		return newWSTransport(conn), nil

	default:
		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return newStreamTransport(conn), nil
	}
}

// streamTransport wraps a plain net.Conn (TCP or TLS, both satisfy
// net.Conn identically once the handshake is done).
type streamTransport struct {
	conn      net.Conn
	connected bool
}

func newStreamTransport(conn net.Conn) *streamTransport {
	return &streamTransport{conn: conn, connected: true}
}

func (t *streamTransport) Read(ctx context.Context, buf []byte) (int, error) {
	deadline, ok := ctx.Deadline()
	if ok {
		t.conn.SetReadDeadline(deadline)
	} else {
		t.conn.SetReadDeadline(time.Time{})
	}
	n, err := t.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, ErrNothingToRead
		}
		t.connected = false
		return n, err
	}
	return n, nil
}

func (t *streamTransport) Write(ctx context.Context, buf []byte) (int, error) {
	deadline, ok := ctx.Deadline()
	if ok {
		t.conn.SetWriteDeadline(deadline)
	} else {
		t.conn.SetWriteDeadline(time.Time{})
	}
	n, err := t.conn.Write(buf)
	if err != nil {
		t.connected = false
	}
	return n, err
}

func (t *streamTransport) Disconnect() error {
	t.connected = false
	return t.conn.Close()
}

func (t *streamTransport) IsConnected() bool {
	return t.connected
}

// wsTransport adapts a gorilla/websocket connection to Transport, grounded
// on breezymind-gomqtt's webSocketStream: each MQTT packet is chunked over
// or coalesced into WebSocket binary frames transparently.
type wsTransport struct {
	conn      *websocket.Conn
	reader    io.Reader
	connected bool
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn, connected: true}
}

func (t *wsTransport) Read(ctx context.Context, buf []byte) (int, error) {
	if deadline, ok := ctx.Deadline(); ok {
		t.conn.SetReadDeadline(deadline)
	} else {
		t.conn.SetReadDeadline(time.Time{})
	}

	for {
		if t.reader == nil {
			kind, r, err := t.conn.NextReader()
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					return 0, ErrNothingToRead
				}
				t.connected = false
				return 0, err
			}
			if kind != websocket.BinaryMessage {
				t.connected = false
				return 0, errors.New("transport: non-binary websocket frame")
			}
			t.reader = r
		}
		n, err := t.reader.Read(buf)
		if err == io.EOF {
			t.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		if err != nil {
			t.connected = false
			return n, err
		}
		return n, nil
	}
}

func (t *wsTransport) Write(ctx context.Context, buf []byte) (int, error) {
	if deadline, ok := ctx.Deadline(); ok {
		t.conn.SetWriteDeadline(deadline)
	}
	w, err := t.conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		t.connected = false
		return 0, err
	}
	n, err := w.Write(buf)
	if err != nil {
		t.connected = false
		return n, err
	}
	if err := w.Close(); err != nil {
		t.connected = false
		return n, err
	}
	return n, nil
}

func (t *wsTransport) Disconnect() error {
	t.connected = false
	t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return t.conn.Close()
}

func (t *wsTransport) IsConnected() bool {
	return t.connected
}
