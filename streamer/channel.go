package streamer

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/igmarkets/ig-go/internal/authn"
	"github.com/igmarkets/ig-go/internal/broadcast"
	"github.com/igmarkets/ig-go/internal/errs"
)

// Channel owns one long-lived streaming session tied to a single
// Credentials snapshot taken at construction time. Its goroutine topology
// (connReader/connWriter/messageProcessor/connPinger coordinated through a
// WaitGroup) mirrors alpaca's marketdata/stream client.maintainConnection.
type Channel struct {
	logger Logger

	streamerURL string
	user        string
	password    string
	adapterSet  string

	reconnectLimit int
	reconnectDelay time.Duration
	processorCount int
	bufferSize     int
	connCreator    func(ctx context.Context, u url.URL) (conn, error)

	connectCalled atomic.Bool
	connectOnce   sync.Once

	status  *broadcast.Dedup[SessionStatus]
	currMu  sync.Mutex
	current SessionStatus

	writeMu sync.Mutex // serializes writes/pings against the conn itself
	conn    conn
	in      chan []byte

	outMu sync.Mutex
	out   chan []byte // set once per connection; nil while no connWriter is running

	subsMu    sync.Mutex
	subs      map[int]*Subscription
	nextSubID int

	disconnectOnce sync.Once
	disconnected   chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// NewChannel derives the streaming password from creds, which must carry a
// CertificateToken, and returns a Channel ready to Connect. On any other
// token it fails with an InvalidRequest *errs.Error (ig.Error's underlying
// type) whose message reads "No Certificate credentials".
func NewChannel(creds *authn.Credentials, opts ...Option) (*Channel, error) {
	password, err := creds.StreamerPassword()
	if err != nil {
		return nil, errs.New(errs.InvalidRequest, "No Certificate credentials").WithCause(err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Channel{
		logger:         o.logger,
		streamerURL:    creds.StreamerURL,
		user:           creds.AccountID,
		password:       password,
		adapterSet:     o.adapterSet,
		reconnectLimit: o.reconnectLimit,
		reconnectDelay: o.reconnectDelay,
		processorCount: o.processorCount,
		bufferSize:     o.bufferSize,
		connCreator:    o.connCreator,
		status:         broadcast.NewDedup(sameSessionStatus),
		current:        DisconnectedSessionStatus{Retrying: false},
		subs:           map[int]*Subscription{},
		disconnected:   make(chan struct{}),
		closed:         make(chan struct{}),
	}, nil
}

// Status returns the channel's current SessionStatus.
func (ch *Channel) Status() SessionStatus {
	ch.currMu.Lock()
	defer ch.currMu.Unlock()
	return ch.current
}

// StatusStream returns a broadcast stream of SessionStatus values with
// adjacent duplicates removed. It completes only when the channel is
// closed.
func (ch *Channel) StatusStream() (<-chan SessionStatus, func()) {
	return ch.status.Subscribe()
}

func (ch *Channel) publishStatus(s SessionStatus) {
	ch.currMu.Lock()
	ch.current = s
	ch.currMu.Unlock()
	ch.status.Publish(s)
}

// Connect establishes the streaming session, reconnecting automatically on
// recoverable failures up to reconnectLimit attempts. It blocks until the
// session is ready (Connected(Http|WebSocket)) or fails permanently.
// Connect must be called at most once.
func (ch *Channel) Connect(ctx context.Context) error {
	if _, stalled := ch.Status().(StalledSessionStatus); stalled {
		return ErrChannelStalled
	}

	err := ErrConnectCalledMultipleTimes
	ch.connectOnce.Do(func() {
		ch.connectCalled.Store(true)
		u, parseErr := toWebsocketURL(ch.streamerURL)
		if parseErr != nil {
			err = parseErr
			return
		}
		err = ch.connectAndMaintain(ctx, u)
	})
	return err
}

func (ch *Channel) connectAndMaintain(ctx context.Context, u url.URL) error {
	initialResultCh := make(chan error)
	go ch.maintainSession(ctx, u, initialResultCh)
	return <-initialResultCh
}

func (ch *Channel) maintainSession(ctx context.Context, u url.URL, initialResultCh chan<- error) {
	var lastErr error
	attempts := 0
	readyOnce := false

	for {
		select {
		case <-ctx.Done():
			ch.publishStatus(DisconnectedSessionStatus{Retrying: false})
			ch.terminateAllSubscriptions()
			if !readyOnce {
				initialResultCh <- ctx.Err()
			}
			ch.closeOnce.Do(func() { close(ch.closed) })
			return
		case <-ch.disconnected:
			ch.publishStatus(DisconnectedSessionStatus{Retrying: false})
			ch.terminateAllSubscriptions()
			if !readyOnce {
				initialResultCh <- nil
			}
			ch.closeOnce.Do(func() { close(ch.closed) })
			return
		default:
		}

		if ch.reconnectLimit != 0 && attempts >= ch.reconnectLimit {
			ch.logger.Errorf("streamer: reconnect limit reached, last error: %v", lastErr)
			ch.publishStatus(DisconnectedSessionStatus{Retrying: false})
			ch.terminateAllSubscriptions()
			if !readyOnce {
				initialResultCh <- ErrUnableToConnect
			}
			ch.closeOnce.Do(func() { close(ch.closed) })
			return
		}

		if attempts > 0 {
			ch.publishStatus(DisconnectedSessionStatus{Retrying: true})
			time.Sleep(time.Duration(attempts) * ch.reconnectDelay)
		}
		attempts++

		ch.publishStatus(ConnectingSessionStatus{})
		ch.logger.Infof("streamer: connecting to %s, attempt %d", u.String(), attempts)

		c, err := ch.connCreator(ctx, u)
		if err != nil {
			lastErr = err
			ch.logger.Warnf("streamer: failed to connect, error: %v", err)
			continue
		}
		ch.conn = c

		if err := ch.initialize(ctx); err != nil {
			lastErr = err
			ch.conn.close()
			ch.logger.Warnf("streamer: session setup failed, error: %v", err)
			continue
		}

		attempts = 0
		if !readyOnce {
			readyOnce = true
			initialResultCh <- nil
		}

		ch.in = make(chan []byte, ch.bufferSize)
		ch.outMu.Lock()
		ch.out = make(chan []byte, ch.bufferSize)
		ch.outMu.Unlock()
		wg := sync.WaitGroup{}
		wg.Add(ch.processorCount + 3)
		closeCh := make(chan struct{})
		for i := 0; i < ch.processorCount; i++ {
			go ch.messageProcessor(ctx, &wg)
		}
		go ch.connPinger(ctx, &wg, closeCh)
		go ch.connReader(ctx, &wg, closeCh)
		go ch.connWriter(ctx, &wg, closeCh)
		wg.Wait()

		ch.outMu.Lock()
		ch.out = nil
		ch.outMu.Unlock()

		if ctx.Err() != nil {
			continue // loop will observe ctx.Done() at top and exit cleanly
		}
		ch.logger.Warnf("streamer: connection lost, will retry")
	}
}

func (ch *Channel) connPinger(ctx context.Context, wg *sync.WaitGroup, closeCh <-chan struct{}) {
	t := newPingTicker()
	defer func() {
		t.Stop()
		ch.conn.close()
		wg.Done()
	}()
	for {
		select {
		case <-closeCh:
			return
		case <-ctx.Done():
			return
		case <-t.C():
			if err := ch.pingConn(ctx); err != nil {
				if ctx.Err() == nil {
					ch.logger.Warnf("streamer: ping failed, error: %v", err)
				}
				return
			}
		}
	}
}

var newPingTicker = func() ticker {
	return &timeTicker{ticker: time.NewTicker(pingPeriod)}
}

func (ch *Channel) connReader(ctx context.Context, wg *sync.WaitGroup, closeCh chan<- struct{}) {
	defer func() {
		close(closeCh)
		ch.conn.close()
		close(ch.in)
		wg.Done()
	}()
	for {
		msg, err := ch.conn.readMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				ch.logger.Warnf("streamer: reading from conn failed, error: %v", err)
			}
			return
		}
		ch.in <- msg
	}
}

func (ch *Channel) connWriter(ctx context.Context, wg *sync.WaitGroup, closeCh <-chan struct{}) {
	defer func() {
		ch.conn.close()
		wg.Done()
	}()
	for {
		select {
		case <-closeCh:
			return
		case <-ctx.Done():
			return
		case msg := <-ch.out:
			if err := ch.writeConn(ctx, msg); err != nil {
				if ctx.Err() == nil {
					ch.logger.Warnf("streamer: writing to conn failed, error: %v", err)
				}
				return
			}
		}
	}
}

func (ch *Channel) messageProcessor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch.in:
			if !ok {
				return
			}
			if err := ch.handleMessage(msg); err != nil {
				ch.logger.Errorf("streamer: could not handle message, error: %v", err)
			}
		}
	}
}

// handleMessage dispatches one raw server frame. Lines are of the form
// "U,<id>,<item>|<f1>|<f2>...", "SUBOK,<id>", "UNSUB,<id>",
// "EOS,<id>" (snapshot end), "CONF,<id>,<lost>" (lost updates),
// "SUBERR,<id>,<code>,<msg>", or "LOOP"/"PROBE" keep-alives which are
// ignored.
func (ch *Channel) handleMessage(raw []byte) error {
	line := strings.TrimSpace(string(raw))
	if line == "" || line == "PROBE" || line == "LOOP" {
		return nil
	}
	parts := strings.SplitN(line, ",", 3)
	tag := parts[0]

	switch tag {
	case "SUBOK":
		_, sub, ok := ch.subByIDField(parts)
		if !ok {
			return fmt.Errorf("unknown subscription in SUBOK: %v", parts)
		}
		sub.setState(Subscribed)
		return nil
	case "UNSUB":
		_, sub, ok := ch.subByIDField(parts)
		if !ok {
			return nil // already removed locally
		}
		ch.removeSubscription(sub)
		return nil
	case "EOS":
		return nil
	case "CONF":
		_, sub, ok := ch.subByIDField(parts)
		if !ok || len(parts) < 3 {
			return fmt.Errorf("malformed CONF frame: %v", parts)
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return fmt.Errorf("malformed CONF lost-update count: %w", err)
		}
		sub.deliverLost(n)
		return nil
	case "SUBERR":
		_, sub, ok := ch.subByIDField(parts)
		if !ok || len(parts) < 3 {
			return fmt.Errorf("malformed SUBERR frame: %v", parts)
		}
		fields := strings.SplitN(parts[2], ",", 2)
		code, _ := strconv.Atoi(fields[0])
		msg := ""
		if len(fields) > 1 {
			msg = fields[1]
		}
		sub.fail(newSubscriptionError(code, msg))
		return nil
	case "U":
		if len(parts) < 3 {
			return fmt.Errorf("malformed update frame: %v", parts)
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("malformed update subscription id: %w", err)
		}
		ch.subsMu.Lock()
		sub, ok := ch.subs[id]
		ch.subsMu.Unlock()
		if !ok {
			return nil
		}
		upd, err := sub.decodeUpdate(parts[2])
		if err != nil {
			return err
		}
		sub.deliver(upd)
		return nil
	default:
		return fmt.Errorf("unrecognized frame tag %q", tag)
	}
}

func (ch *Channel) subByIDField(parts []string) (int, *Subscription, bool) {
	if len(parts) < 2 {
		return 0, nil, false
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, nil, false
	}
	ch.subsMu.Lock()
	sub, ok := ch.subs[id]
	ch.subsMu.Unlock()
	return id, sub, ok
}

// Subscribe registers a new subscription against the session and returns
// it once the subscribe request has been dispatched. The request is
// retried implicitly on reconnect (see initialize).
func (ch *Channel) Subscribe(ctx context.Context, mode Mode, items, fields []string, wantsSnapshot bool) (*Subscription, error) {
	return ch.subscribe(ctx, mode, items, fields, wantsSnapshot, nil)
}

// SubscribeCommand is like Subscribe but for Command mode, where schema
// describes first- and second-level field positions. A Command
// subscription's snapshot is always one ADD per active key, so
// wantsSnapshot is implicitly true.
func (ch *Channel) SubscribeCommand(ctx context.Context, items []string, schema CommandSchema) (*Subscription, error) {
	return ch.subscribe(ctx, Command, items, schema.allFields(), true, &schema)
}

func (ch *Channel) subscribe(ctx context.Context, mode Mode, items, fields []string, wantsSnapshot bool, schema *CommandSchema) (*Subscription, error) {
	select {
	case <-ch.closed:
		return nil, ErrChannelClosed
	default:
	}
	if !ch.connectCalled.Load() {
		return nil, ErrSubscribeBeforeConnect
	}

	ch.subsMu.Lock()
	ch.nextSubID++
	id := ch.nextSubID
	sub := &Subscription{
		id:            id,
		mode:          mode,
		items:         items,
		fields:        fields,
		wantsSnapshot: wantsSnapshot,
		schema:        schema,
		state:         Idle,
		updates:       make(chan Update, 16),
		lostUpdates:   make(chan int, 4),
		errs:          make(chan error, 1),
		done:          make(chan struct{}),
		channel:       ch,
	}
	ch.subs[id] = sub
	ch.subsMu.Unlock()

	if err := ch.writeSubscribeRequest(ctx, sub); err != nil {
		ch.subsMu.Lock()
		delete(ch.subs, id)
		ch.subsMu.Unlock()
		return nil, err
	}
	return sub, nil
}

func (ch *Channel) unsubscribe(sub *Subscription) error {
	ch.subsMu.Lock()
	_, ok := ch.subs[sub.id]
	ch.subsMu.Unlock()
	if !ok {
		return nil // already removed, idempotent
	}
	return ch.writeUnsubscribeRequest(context.Background(), sub)
}

func (ch *Channel) removeSubscription(sub *Subscription) {
	ch.subsMu.Lock()
	delete(ch.subs, sub.id)
	ch.subsMu.Unlock()
	sub.terminate()
}

// terminateAllSubscriptions completes every live subscription without error
// once the session is fully torn down, rather than leaving callers blocked
// on Updates() forever.
func (ch *Channel) terminateAllSubscriptions() {
	ch.subsMu.Lock()
	subs := make([]*Subscription, 0, len(ch.subs))
	for _, s := range ch.subs {
		subs = append(subs, s)
	}
	ch.subs = map[int]*Subscription{}
	ch.subsMu.Unlock()

	for _, s := range subs {
		s.terminate()
	}
}

// Disconnect tears down the session. It is idempotent; once the channel
// reaches Disconnected(retrying=false), subsequent calls are no-ops. It
// signals maintainSession to stop retrying rather than merely closing the
// transport, which would otherwise just trigger a reconnect attempt.
func (ch *Channel) Disconnect(ctx context.Context) error {
	ch.disconnectOnce.Do(func() { close(ch.disconnected) })
	if c := ch.conn; c != nil {
		_ = c.close()
	}
	return nil
}

// Close permanently shuts down the channel: disconnect, then every
// subscription is torn down before the status stream completes.
func (ch *Channel) Close() error {
	_ = ch.Disconnect(context.Background())
	ch.terminateAllSubscriptions()
	ch.status.Close()
	ch.closeOnce.Do(func() { close(ch.closed) })
	return nil
}
