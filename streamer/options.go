package streamer

import (
	"context"
	"net/url"
	"time"
)

type options struct {
	logger         Logger
	adapterSet     string
	reconnectLimit int
	reconnectDelay time.Duration
	processorCount int
	bufferSize     int
	connCreator    func(ctx context.Context, u url.URL) (conn, error)
}

func defaultOptions() *options {
	return &options{
		logger:         newStdLog(),
		adapterSet:     "DEFAULT",
		reconnectLimit: 20,
		reconnectDelay: 150 * time.Millisecond,
		processorCount: 1,
		bufferSize:     100,
		connCreator:    newNhooyrWebsocketConn,
	}
}

// Option configures a Channel at construction time.
type Option func(*options)

// WithLogger installs a custom Logger. The default is a minimal
// stderr-backed logger adapted from alpaca's stdLog.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAdapterSet sets the server-side adapter set name to request at
// session creation. The default is "DEFAULT".
func WithAdapterSet(name string) Option {
	return func(o *options) { o.adapterSet = name }
}

// WithReconnectLimit caps the number of consecutive failed connection
// attempts before Connect gives up. Zero means unlimited.
func WithReconnectLimit(n int) Option {
	return func(o *options) { o.reconnectLimit = n }
}

// WithReconnectDelay sets the base backoff delay between reconnect
// attempts; actual delay scales linearly with the attempt count.
func WithReconnectDelay(d time.Duration) Option {
	return func(o *options) { o.reconnectDelay = d }
}

// WithProcessorCount sets how many goroutines process inbound frames
// concurrently. With more than one, frames for the same Subscription may be
// handled in parallel, so its updates can arrive out of server order; the
// default of one keeps that order.
func WithProcessorCount(n int) Option {
	return func(o *options) { o.processorCount = n }
}

// WithBufferSize sets the size of the inbound-frame buffering channel.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// withConnCreator overrides how the channel dials the transport; used by
// tests to substitute a fake conn.
func withConnCreator(f func(ctx context.Context, u url.URL) (conn, error)) Option {
	return func(o *options) { o.connCreator = f }
}
