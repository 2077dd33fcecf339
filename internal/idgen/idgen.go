// Package idgen generates the two identifiers the core hands out: rotating
// MQTT packet ids and short per-connection session tags.
package idgen

import (
	"sync"

	"github.com/golang-io/requests"
)

// MaxPacketID is the protocol ceiling: packet ids are unsigned 16-bit values
// and 0 is reserved for QoS 0 and unused fields.
const MaxPacketID uint16 = 65535

// PacketIDGenerator hands out packet ids in [1, MaxPacketID], wrapping back
// to 1 after MaxPacketID. It never yields 0.
type PacketIDGenerator struct {
	mu   sync.Mutex
	next uint16
}

// NewPacketIDGenerator returns a generator whose first Next() is 1.
func NewPacketIDGenerator() *PacketIDGenerator {
	return &PacketIDGenerator{next: 1}
}

// Next returns the next packet id and advances the counter.
func (g *PacketIDGenerator) Next() uint16 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	if g.next == MaxPacketID {
		g.next = 1
	} else {
		g.next++
	}
	return id
}

// ConnID returns a short opaque tag identifying one connection attempt, used
// to correlate log lines and reconnect generations. Grounded on the
// teacher's use of requests.GenId() to derive a client id in options.go.
func ConnID() string {
	return requests.GenId()
}
