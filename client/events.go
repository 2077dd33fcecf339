package client

import "github.com/qcloudiot/devicemqtt/internal/subs"

// EventKind enumerates the state-changing broker interactions the core
// surfaces through the event handler, spec §4.I.
type EventKind int

const (
	EventUndefined EventKind = iota
	EventDisconnect
	EventReconnect
	EventSubscribeSuccess
	EventSubscribeTimeout
	EventSubscribeNack
	EventUnsubscribeSuccess
	EventUnsubscribeTimeout
	EventUnsubscribeNack
	EventPublishSuccess
	EventPublishTimeout
	EventPublishNack
	EventPublishReceivedWithoutHandler
	EventClientDestroy
)

var eventKindNames = map[EventKind]string{
	EventUndefined:                     "undefined",
	EventDisconnect:                    "disconnect",
	EventReconnect:                     "reconnect",
	EventSubscribeSuccess:              "subscribe-success",
	EventSubscribeTimeout:              "subscribe-timeout",
	EventSubscribeNack:                 "subscribe-nack",
	EventUnsubscribeSuccess:            "unsubscribe-success",
	EventUnsubscribeTimeout:            "unsubscribe-timeout",
	EventUnsubscribeNack:               "unsubscribe-nack",
	EventPublishSuccess:                "publish-success",
	EventPublishTimeout:                "publish-timeout",
	EventPublishNack:                   "publish-nack",
	EventPublishReceivedWithoutHandler: "publish-received-without-handler",
	EventClientDestroy:                 "client-destroy",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is the payload delivered to an EventHandler. For sub/unsub/pub
// events PacketID is set; for publish-received-without-handler Message is
// set; for others both are zero.
type Event struct {
	Kind     EventKind
	PacketID uint16
	Message  subs.InboundMessage
}

// EventHandler is installed at Construct time and invoked for every Event.
// It must not block: the yield loop calls it synchronously.
type EventHandler func(Event)

func noopEventHandler(Event) {}
