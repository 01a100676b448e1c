// Package errs holds the single error value type shared, identically, by
// the ig, streamer, and cache packages. It lives here rather than in the
// root ig package so that streamer and cache (which the root package
// imports) can produce it without creating an import cycle; the root
// package re-exports it as ig.Error.
package errs

import "fmt"

// Kind is the closed sum of error categories shared across all three
// domains.
type Kind int

const (
	// SessionExpired means the owning session handle has been dropped or
	// the credential backing it is gone.
	SessionExpired Kind = iota
	// InvalidRequest means caller-side misuse: bad arguments, missing
	// credentials, or an impossible state transition.
	InvalidRequest
	// CallFailed means the underlying HTTPS transport reported a failure.
	CallFailed
	// SubscriptionFailed means the underlying streaming transport reported
	// a subscription-level failure.
	SubscriptionFailed
	// InvalidResponse means the server reply (bytes, status, schema) did
	// not match what was expected.
	InvalidResponse
)

func (k Kind) String() string {
	switch k {
	case SessionExpired:
		return "SessionExpired"
	case InvalidRequest:
		return "InvalidRequest"
	case CallFailed:
		return "CallFailed"
	case SubscriptionFailed:
		return "SubscriptionFailed"
	case InvalidResponse:
		return "InvalidResponse"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the user-visible failure type for all three domains. Every
// value carries a kind, a short message, a recovery suggestion, an
// optional underlying cause, and a free-form context map (request URL,
// page number, subscription item and fields, ...), per the error handling
// design's requirement that failures carry more than just a message.
type Error struct {
	Kind       Kind
	Msg        string
	Suggestion string
	Cause      error
	Context    map[string]string
}

// New returns an *Error of the given kind with no suggestion, cause, or
// context attached. Use the With* methods to attach them.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Error renders the kind, message, and (if present) suggestion, matching
// the "kind: message (try: suggestion)" shape readers of authn's and
// streamer's error values already expect.
func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if e.Suggestion != "" {
		s += fmt.Sprintf(" (try: %s)", e.Suggestion)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

// Unwrap exposes Cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSuggestion returns e with Suggestion set, for chaining at the
// construction site.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithCause returns e with Cause set.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext returns e with key=value merged into Context, allocating the
// map on first use.
func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = map[string]string{}
	}
	e.Context[key] = value
	return e
}
