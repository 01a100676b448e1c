package streamer

import (
	"context"
	"time"
)

// conn represents a duplex connection to the streaming server, abstracted
// so tests can substitute a fake without a real network round-trip.
type conn interface {
	close() error
	ping(ctx context.Context) error
	readMessage(ctx context.Context) (data []byte, err error)
	writeMessage(ctx context.Context, data []byte) error
}

var (
	writeWait  = 5 * time.Second
	pongWait   = 5 * time.Second
	pingPeriod = 10 * time.Second
)
