package streamer

import (
	"fmt"
	"strconv"

	"github.com/igmarkets/ig-go/internal/errs"
)

// ErrConnectCalledMultipleTimes is returned when Connect has been called
// more than once on a single Channel.
var ErrConnectCalledMultipleTimes = errs.New(errs.InvalidRequest, "Connect called multiple times").
	WithSuggestion("call Connect exactly once per Channel; share the Channel rather than reconnecting")

// ErrChannelStalled is returned by Connect when the channel's session has
// already transitioned to Stalled.
var ErrChannelStalled = errs.New(errs.InvalidRequest, "stalled connection").
	WithSuggestion("wait for the session to recover or build a new Channel")

// ErrUnableToConnect is returned by Connect when the session reaches
// Disconnected(retrying=false) before ever becoming ready.
var ErrUnableToConnect = errs.New(errs.InvalidResponse, "unable to connect").
	WithSuggestion("check the streamer URL and credentials, then retry with a new Channel")

// ErrSubscribeBeforeConnect is returned when Subscribe is called before
// Connect has been called.
var ErrSubscribeBeforeConnect = errs.New(errs.InvalidRequest, "subscribe attempted before connect").
	WithSuggestion("call Connect and wait for it to return before subscribing")

// ErrChannelClosed is returned by Subscribe once the channel has been
// permanently closed.
var ErrChannelClosed = errs.New(errs.SessionExpired, "channel is closed").
	WithSuggestion("build a new Channel; a closed one cannot be reused")

// SubscriptionErrorKind is the closed sum of server-reported subscription
// failure categories.
type SubscriptionErrorKind int

const (
	InvalidAdapterName SubscriptionErrorKind = iota
	InterruptedSession
	InvalidGroupName
	InvalidSchemaName
	ProhibitedModeForItem
	UnfilteredDispatchingProhibited
	UnfilteredDispatchingUnsupported
	UnfilteredDispatchingRestricted
	RawModeRestricted
	SubscriptionRestricted
	RequestRefused
	UnknownSubscriptionError
)

// subscriptionErrorCodes maps the Lightstreamer-compatible numeric error
// codes reported on a subscription's error frame to their category: 17,
// 20-28 and 30. Any other code maps to UnknownSubscriptionError.
var subscriptionErrorCodes = map[int]SubscriptionErrorKind{
	17: InvalidAdapterName,
	20: InterruptedSession,
	21: InvalidGroupName,
	22: InvalidSchemaName,
	23: ProhibitedModeForItem,
	24: UnfilteredDispatchingProhibited,
	25: UnfilteredDispatchingUnsupported,
	26: UnfilteredDispatchingRestricted,
	27: RawModeRestricted,
	28: SubscriptionRestricted,
	30: RequestRefused,
}

func subscriptionErrorKindForCode(code int) SubscriptionErrorKind {
	if kind, ok := subscriptionErrorCodes[code]; ok {
		return kind
	}
	return UnknownSubscriptionError
}

func (k SubscriptionErrorKind) String() string {
	switch k {
	case InvalidAdapterName:
		return "InvalidAdapterName"
	case InterruptedSession:
		return "InterruptedSession"
	case InvalidGroupName:
		return "InvalidGroupName"
	case InvalidSchemaName:
		return "InvalidSchemaName"
	case ProhibitedModeForItem:
		return "ProhibitedModeForItem"
	case UnfilteredDispatchingProhibited:
		return "UnfilteredDispatchingProhibited"
	case UnfilteredDispatchingUnsupported:
		return "UnfilteredDispatchingUnsupported"
	case UnfilteredDispatchingRestricted:
		return "UnfilteredDispatchingRestricted"
	case RawModeRestricted:
		return "RawModeRestricted"
	case SubscriptionRestricted:
		return "SubscriptionRestricted"
	case RequestRefused:
		return "RequestRefused"
	default:
		return "UnknownSubscriptionError"
	}
}

// SubscriptionError is returned on a Subscription's Updates/Errors channel
// when the server reports a subscription-level failure. It embeds an
// *errs.Error (ig.Error's underlying type) carrying the shared taxonomy,
// with the numeric code and parsed SubscriptionErrorKind additionally
// folded into Context so callers that only know about ig.Error can still
// read them.
type SubscriptionError struct {
	*errs.Error
	Kind SubscriptionErrorKind
	Code int
}

// newSubscriptionError builds a SubscriptionError from a server-reported
// numeric code and message, deriving Kind and populating Context.
func newSubscriptionError(code int, msg string) *SubscriptionError {
	kind := subscriptionErrorKindForCode(code)
	inner := errs.New(errs.SubscriptionFailed, msg).
		WithContext("subscriptionErrorCode", strconv.Itoa(code)).
		WithContext("subscriptionErrorKind", kind.String())
	return &SubscriptionError{Error: inner, Kind: kind, Code: code}
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("streamer: subscription error %d: %s", e.Code, e.Error.Error())
}

// newFrameParseError builds a SubscriptionError for a malformed update
// frame received from the server, as opposed to a server-reported
// subscription failure code.
func newFrameParseError(msg string) *SubscriptionError {
	return &SubscriptionError{
		Error: errs.New(errs.InvalidResponse, msg),
		Kind:  UnknownSubscriptionError,
	}
}
