package client

import (
	"log"
	"time"
)

// Command timeout bounds, spec §4.H: Construct validates command_timeout_ms
// against these before anything else.
const (
	MinCommandTimeout = 500 * time.Millisecond
	MaxCommandTimeout = 20000 * time.Millisecond

	MinReconnectWait = 1000 * time.Millisecond
	maxReconnectWait = 60 * time.Second

	defaultHost           = "iotcloud.tencentdevices.com"
	defaultPort           = 8883
	defaultKeepAlive      = 240 * time.Second
	defaultCommandTimeout = 5 * time.Second
)

// Options holds every value Construct accepts, mirroring the teacher's
// Options struct/newOptions pattern in options.go.
type Options struct {
	Host string
	Port int

	KeepAliveInterval time.Duration
	CommandTimeout    time.Duration
	CleanSession      bool
	AutoConnectEnable bool

	TLSEnable bool

	EventHandler EventHandler
	Logger       *log.Logger
}

// Option configures a Client at construction time.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Host:              defaultHost,
		Port:              defaultPort,
		KeepAliveInterval: defaultKeepAlive,
		CommandTimeout:    defaultCommandTimeout,
		CleanSession:      true,
		AutoConnectEnable: true,
		TLSEnable:         true,
		EventHandler:      noopEventHandler,
		Logger:            log.Default(),
	}
}

// WithHost overrides the default broker host.
func WithHost(host string) Option {
	return func(o *Options) { o.Host = host }
}

// WithPort overrides the default broker port.
func WithPort(port int) Option {
	return func(o *Options) { o.Port = port }
}

// WithKeepAlive sets the keep-alive interval.
func WithKeepAlive(d time.Duration) Option {
	return func(o *Options) { o.KeepAliveInterval = d }
}

// WithCommandTimeout sets the per-request ack timeout. Construct rejects
// values outside [MinCommandTimeout, MaxCommandTimeout] with
// KindInvalidArgument.
func WithCommandTimeout(d time.Duration) Option {
	return func(o *Options) { o.CommandTimeout = d }
}

// WithCleanSession sets the CONNECT clean-session flag.
func WithCleanSession(clean bool) Option {
	return func(o *Options) { o.CleanSession = clean }
}

// WithAutoConnect enables or disables automatic reconnection.
func WithAutoConnect(enable bool) Option {
	return func(o *Options) { o.AutoConnectEnable = enable }
}

// WithTLS enables or disables TLS on the broker connection (default on,
// matching the teacher's default of port 8883/mqtts).
func WithTLS(enable bool) Option {
	return func(o *Options) { o.TLSEnable = enable }
}

// WithEventHandler installs the callback invoked for every Event.
func WithEventHandler(h EventHandler) Option {
	return func(o *Options) { o.EventHandler = h }
}

// WithLogger swaps the package's default log.Default() sink, matching the
// teacher's bare log.Printf convention rather than a structured logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
