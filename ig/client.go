package ig

import (
	"context"
	"net/http"
	"time"

	"github.com/igmarkets/ig-go/internal/authn"
)

// Logger is the same small capability interface the streaming channel
// accepts: Infof/Warnf/Errorf, satisfied by a no-op default so callers only
// pay for logging they ask for.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

// defaultBaseURL is IG's demo gateway; production callers override it via
// ClientOpts.BaseURL.
const defaultBaseURL = "https://demo-api.ig.com/gateway/deal"

// ClientOpts configures a Client. APIKey is required; everything else has a
// sensible default, the same override-then-default shape as the teacher's
// alpaca.ClientOpts/NewClient.
type ClientOpts struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  Logger

	// HTTPClient, if set, replaces the default *http.Client. Primarily for
	// tests that need to intercept transport-level behavior.
	HTTPClient *http.Client
}

// Client is the HTTPS request pipeline: a credential store, an HTTP client,
// and a single serial worker goroutine (the "API queue" of the concurrency
// model) that every endpoint method schedules its pipeline onto.
type Client struct {
	opts  ClientOpts
	creds *authn.CredentialStore
	http  *http.Client

	work chan func()
	done chan struct{}
}

// NewClient returns a Client ready to Login and make requests. The
// returned Client owns a background goroutine; call Close when done with
// it.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		opts:  opts,
		creds: authn.NewCredentialStore(),
		http:  httpClient,
		work:  make(chan func()),
		done:  make(chan struct{}),
	}
	go c.runQueue()
	return c
}

func (c *Client) runQueue() {
	for {
		select {
		case fn := <-c.work:
			fn()
		case <-c.done:
			return
		}
	}
}

// Credentials exposes the client's credential store, e.g. to build a
// streamer.Channel sharing the same session.
func (c *Client) Credentials() *authn.CredentialStore {
	return c.creds
}

// Close stops the client's API queue goroutine. In-flight calls scheduled
// before Close is called are allowed to finish; calls scheduled afterward
// fail with SessionExpired.
func (c *Client) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	return nil
}

// run schedules fn on the client's serial API queue and blocks until it
// completes, ctx is cancelled, or the client is closed. fn itself never
// observes ctx cancellation mid-flight; callers needing that must select on
// ctx.Done() inside fn (as send and sendPaginating do).
func (c *Client) run(ctx context.Context, fn func()) error {
	scheduled := make(chan struct{})
	select {
	case c.work <- func() { fn(); close(scheduled) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return newError(SessionExpired, "client is closed").
			WithSuggestion("build a new Client; a closed one cannot be reused")
	}
	select {
	case <-scheduled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call runs fn on the client's API queue and returns its result, collapsing
// the run/fn error pair into the single return convention every endpoint
// method uses.
func call[T any](ctx context.Context, c *Client, fn func() (T, error)) (T, error) {
	var result T
	var ferr error
	if err := c.run(ctx, func() { result, ferr = fn() }); err != nil {
		var zero T
		return zero, err
	}
	return result, ferr
}
