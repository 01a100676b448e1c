package streamer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nhooyr.io/websocket"
)

type nhooyrWebsocketConn struct {
	conn    *websocket.Conn
	msgType websocket.MessageType
}

// newNhooyrWebsocketConn dials u, which must already have been translated
// from http(s):// to ws(s):// by the caller (see toWebsocketURL).
func newNhooyrWebsocketConn(ctx context.Context, u url.URL) (conn, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	reqHeader := http.Header{}
	reqHeader.Set("Content-Type", "text/plain")
	reqHeader.Set("User-Agent", userAgent())

	c, _, err := websocket.Dial(ctxWithTimeout, u.String(), &websocket.DialOptions{
		CompressionMode: websocket.CompressionContextTakeover,
		HTTPHeader:      reqHeader,
	})
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c.SetReadLimit(-1)

	return &nhooyrWebsocketConn{
		conn:    c,
		msgType: websocket.MessageText,
	}, nil
}

func (c *nhooyrWebsocketConn) close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

func (c *nhooyrWebsocketConn) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pongWait)
	defer cancel()
	return c.conn.Ping(pingCtx)
}

func (c *nhooyrWebsocketConn) readMessage(ctx context.Context) (data []byte, err error) {
	_, data, err = c.conn.Read(ctx)
	return data, err
}

func (c *nhooyrWebsocketConn) writeMessage(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(writeCtx, c.msgType, data)
}

// toWebsocketURL rewrites http(s):// to ws(s):// as required to negotiate
// the streaming server's WebSocket transport, per the streaming surface
// description: the caller supplies an http(s):// streamer URL and the
// channel translates it internally.
func toWebsocketURL(raw string) (url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, fmt.Errorf("streamer: parse streamer URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https", "":
		u.Scheme = "wss"
	case "ws", "wss":
		// already a websocket URL
	default:
		return url.URL{}, fmt.Errorf("streamer: unsupported streamer URL scheme %q", u.Scheme)
	}
	return *u, nil
}

func userAgent() string {
	return "ig-go/" + Version
}

// Version is the module's user-agent version string, adapted from the
// teacher's alpaca.Version() helper.
const Version = "0.1.0"
