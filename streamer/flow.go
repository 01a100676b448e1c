package streamer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	initializeTimeout = 3 * time.Second
)

// initialize drives the session handshake: send create_session, wait for
// CONOK, then send a subscribe request for each currently-registered
// subscription (so subscriptions survive a reconnect). Mirrors the
// teacher's initialize()'s "wait to be welcomed, then negotiate" shape,
// generalized to the richer SessionStatus sum instead of a flat
// connected/authenticated pair.
func (ch *Channel) initialize(ctx context.Context) error {
	createCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()
	if err := ch.writeCreateSession(createCtx); err != nil {
		return fmt.Errorf("streamer: failed to write create_session: %w", err)
	}

	readCtx, cancel2 := context.WithTimeout(ctx, initializeTimeout)
	defer cancel2()
	kind, err := ch.readSessionAck(readCtx)
	if err != nil {
		return fmt.Errorf("streamer: failed to read session ack: %w", err)
	}

	ch.publishStatus(ConnectedSessionStatus{Kind: kind, Polling: false})

	ch.subsMu.Lock()
	existing := make([]*Subscription, 0, len(ch.subs))
	for _, s := range ch.subs {
		existing = append(existing, s)
	}
	ch.subsMu.Unlock()

	for _, s := range existing {
		if err := ch.writeSubscribeRequest(ctx, s); err != nil {
			return fmt.Errorf("streamer: failed to resubscribe %d: %w", s.id, err)
		}
	}

	return nil
}

func (ch *Channel) writeCreateSession(ctx context.Context) error {
	msg := fmt.Sprintf("create_session\nuser=%s\npassword=%s\nadapter_set=%s",
		ch.user, ch.password, ch.adapterSet)
	return ch.send(ctx, []byte(msg))
}

// writeConn serializes a write against the single underlying conn so it
// cannot interleave with pingConn's keep-alives.
func (ch *Channel) writeConn(ctx context.Context, msg []byte) error {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	return ch.conn.writeMessage(ctx, msg)
}

// pingConn serializes a ping against the single underlying conn so it
// cannot interleave with writeConn's writes.
func (ch *Channel) pingConn(ctx context.Context) error {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	return ch.conn.ping(ctx)
}

// send dispatches msg to the conn. Once connWriter is running it hands the
// message to ch.out so the dedicated writer goroutine is the only thing
// touching the conn outside of initialize and connPinger; before that (e.g.
// during the handshake in initialize, where no writer goroutine exists yet)
// it writes straight through.
func (ch *Channel) send(ctx context.Context, msg []byte) error {
	ch.outMu.Lock()
	out := ch.out
	ch.outMu.Unlock()

	if out == nil {
		return ch.writeConn(ctx, msg)
	}
	select {
	case out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ch *Channel) readSessionAck(ctx context.Context) (ConnectionKind, error) {
	b, err := ch.conn.readMessage(ctx)
	if err != nil {
		return Sensing, err
	}
	line := strings.TrimSpace(string(b))
	switch {
	case strings.HasPrefix(line, "CONOK"):
		parts := strings.Fields(line)
		kind := WebSocket
		for _, p := range parts {
			if strings.HasPrefix(p, "transport=") {
				if strings.Contains(p, "http") {
					kind = Http
				}
			}
		}
		return kind, nil
	case strings.HasPrefix(line, "CONERR"):
		parts := strings.SplitN(line, ",", 3)
		code := 0
		msg := ""
		if len(parts) > 1 {
			code, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
		}
		if len(parts) > 2 {
			msg = parts[2]
		}
		return Sensing, newSubscriptionError(code, msg)
	case strings.HasPrefix(line, "END"):
		return Sensing, fmt.Errorf("streamer: server closed session: %s", line)
	default:
		return Sensing, fmt.Errorf("streamer: unexpected session ack %q", line)
	}
}

func (ch *Channel) writeSubscribeRequest(ctx context.Context, s *Subscription) error {
	s.setState(Subscribing)
	msg := fmt.Sprintf("subscribe\nid=%d\nmode=%s\nitems=%s\nfields=%s\nsnapshot=%t",
		s.id, s.mode, strings.Join(s.items, ","), strings.Join(s.fields, ","), s.wantsSnapshot)
	return ch.send(ctx, []byte(msg))
}

func (ch *Channel) writeUnsubscribeRequest(ctx context.Context, s *Subscription) error {
	s.setState(Unsubscribing)
	msg := fmt.Sprintf("unsubscribe\nid=%d", s.id)
	return ch.send(ctx, []byte(msg))
}
