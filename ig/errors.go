// Package ig is the HTTPS request pipeline and domain endpoint layer: it
// turns a deferred precomputation into a sent, paginated, decoded response
// stream, injecting credentials from an internal/authn.CredentialStore and
// propagating failures through a single typed Error.
package ig

import "github.com/igmarkets/ig-go/internal/errs"

// Error is the single error type shared by this package, streamer, and
// cache. It is a type alias (not a new type) so that a streamer.SubscriptionError's
// embedded *errs.Error and an *ig.Error are the same underlying type for
// errors.As callers that don't want to import internal/errs directly.
type Error = errs.Error

// ErrorKind is the closed sum of error categories shared across all three
// domains.
type ErrorKind = errs.Kind

const (
	SessionExpired     = errs.SessionExpired
	InvalidRequest     = errs.InvalidRequest
	CallFailed         = errs.CallFailed
	SubscriptionFailed = errs.SubscriptionFailed
	InvalidResponse    = errs.InvalidResponse
)

// newError is the constructor used throughout this package; it exists so
// call sites read "newError(InvalidRequest, ...)" rather than reaching past
// the package boundary into internal/errs directly.
func newError(kind ErrorKind, msg string) *Error {
	return errs.New(kind, msg)
}
