// Package subs implements the fixed-capacity subscription registry: a table
// mapping topic filter to delivery handler, matched against inbound PUBLISH
// topics using MQTT wildcard semantics.
package subs

import (
	"sync"

	"github.com/qcloudiot/devicemqtt/topic"
)

// MaxHandlers is MAX_MESSAGE_HANDLERS from the core's data model: the table
// holds at most this many entries at once.
const MaxHandlers = 10

// MessageHandler is invoked once per matching inbound PUBLISH, in
// registration order, when more than one entry matches a topic.
type MessageHandler func(msg InboundMessage)

// InboundMessage is the view handed to a MessageHandler. Payload aliases
// the body slice packet.Unpack allocated for this one packet, and Topic is
// a string copied out of it; neither is reused for later packets.
type InboundMessage struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Dup      bool
	Retain   bool
	PacketID uint16
}

// Entry is one registered subscription.
type Entry struct {
	Filter  string
	QoS     byte
	Handler MessageHandler
	Context any
}

// ErrFull is returned by Insert when the registry already holds MaxHandlers
// distinct filters.
type errFull struct{}

func (errFull) Error() string { return "subs: registry at capacity" }

var ErrFull error = errFull{}

// Registry is the fixed-capacity subscription table, component D. Safe for
// concurrent use: each operation takes Registry's own lock, and the Client
// calls it without holding any lock of its own.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Insert adds or replaces the entry for filter. Duplicate filter: the
// existing entry is freed and overwritten (last-writer-wins), per §4.D.
// Insert only fails with ErrFull when filter is new and the table is
// already at MaxHandlers.
func (r *Registry) Insert(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.entries {
		if existing.Filter == e.Filter {
			r.entries[i] = e
			return nil
		}
	}
	if len(r.entries) >= MaxHandlers {
		return ErrFull
	}
	r.entries = append(r.entries, e)
	return nil
}

// Remove deletes the entry for filter, if present.
func (r *Registry) Remove(filter string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.Filter == filter {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether filter has an entry registered exactly (not a
// wildcard match, an exact filter-string lookup).
func (r *Registry) Has(filter string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Filter == filter {
			return true
		}
	}
	return false
}

// Match returns, in registration order, every entry whose filter matches
// topicName under MQTT wildcard semantics.
func (r *Registry) Match(topicName string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []Entry
	for _, e := range r.entries {
		if topic.Match(e.Filter, topicName) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Filters returns the registered filters in insertion order.
func (r *Registry) Filters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Filter
	}
	return out
}

// FiltersWithQoS returns, in insertion order, the filter and originally
// granted QoS of every registered entry, used to replay SUBSCRIBE at its
// original QoS on a clean-session reconnect (§4.F) instead of silently
// upgrading every resubscribe to QoS 1.
func (r *Registry) FiltersWithQoS() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = Entry{Filter: e.Filter, QoS: e.QoS}
	}
	return out
}

// Len reports how many filters are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
