package streamer

import "fmt"

// ConnectionKind distinguishes the transport negotiated for a Connected
// session.
type ConnectionKind int

const (
	Sensing ConnectionKind = iota
	Http
	WebSocket
)

func (k ConnectionKind) String() string {
	switch k {
	case Sensing:
		return "Sensing"
	case Http:
		return "Http"
	case WebSocket:
		return "WebSocket"
	default:
		return fmt.Sprintf("ConnectionKind(%d)", int(k))
	}
}

// SessionStatus is the closed sum of states a streaming session can be in:
// Connecting, Connected(Sensing|Http|WebSocket), Stalled, or
// Disconnected(retrying). Every variant implements isSessionStatus and
// fmt.Stringer; String/ParseSessionStatus round-trip for every variant.
type SessionStatus interface {
	fmt.Stringer
	isSessionStatus()
}

// ConnectingSessionStatus is the initial transient state while a session
// handshake is in flight.
type ConnectingSessionStatus struct{}

func (ConnectingSessionStatus) isSessionStatus() {}
func (ConnectingSessionStatus) String() string   { return "Connecting" }

// ConnectedSessionStatus is the state once a transport has been negotiated.
// Polling is true when the server is delivering updates over a
// polling-style connection rather than true streaming.
type ConnectedSessionStatus struct {
	Kind    ConnectionKind
	Polling bool
}

func (ConnectedSessionStatus) isSessionStatus() {}

func (s ConnectedSessionStatus) String() string {
	if s.Polling {
		return fmt.Sprintf("Connected(%s.polling)", s.Kind)
	}
	return fmt.Sprintf("Connected(%s.streaming)", s.Kind)
}

// StalledSessionStatus means the server has stopped responding on an
// otherwise live connection.
type StalledSessionStatus struct{}

func (StalledSessionStatus) isSessionStatus() {}
func (StalledSessionStatus) String() string   { return "Stalled" }

// DisconnectedSessionStatus means no session is currently active.
// Retrying is true while the transport is attempting to automatically
// re-establish the session.
type DisconnectedSessionStatus struct {
	Retrying bool
}

func (DisconnectedSessionStatus) isSessionStatus() {}

func (s DisconnectedSessionStatus) String() string {
	if s.Retrying {
		return "Disconnected(retrying)"
	}
	return "Disconnected"
}

// IsReady reports whether s is Connected in the Http or WebSocket kind
// (i.e. the session is usable, as opposed to merely Sensing which
// transport will be negotiated).
func IsReady(s SessionStatus) bool {
	c, ok := s.(ConnectedSessionStatus)
	return ok && c.Kind != Sensing
}

// IsConnecting reports whether s is Connecting or Connected(Sensing).
func IsConnecting(s SessionStatus) bool {
	if _, ok := s.(ConnectingSessionStatus); ok {
		return true
	}
	c, ok := s.(ConnectedSessionStatus)
	return ok && c.Kind == Sensing
}

// sameSessionStatus reports whether a and b are the same variant with the
// same fields, used to suppress adjacent duplicates on the status stream.
func sameSessionStatus(a, b SessionStatus) bool {
	return a.String() == b.String()
}

// ParseSessionStatus parses the rendering produced by SessionStatus.String.
// It exists primarily to validate the round-trip law that every status
// renders to a string that parses back to an equal value.
func ParseSessionStatus(s string) (SessionStatus, error) {
	switch s {
	case "Connecting":
		return ConnectingSessionStatus{}, nil
	case "Stalled":
		return StalledSessionStatus{}, nil
	case "Disconnected":
		return DisconnectedSessionStatus{Retrying: false}, nil
	case "Disconnected(retrying)":
		return DisconnectedSessionStatus{Retrying: true}, nil
	case "Connected(Sensing.polling)":
		return ConnectedSessionStatus{Kind: Sensing, Polling: true}, nil
	case "Connected(Sensing.streaming)":
		return ConnectedSessionStatus{Kind: Sensing, Polling: false}, nil
	case "Connected(Http.polling)":
		return ConnectedSessionStatus{Kind: Http, Polling: true}, nil
	case "Connected(Http.streaming)":
		return ConnectedSessionStatus{Kind: Http, Polling: false}, nil
	case "Connected(WebSocket.polling)":
		return ConnectedSessionStatus{Kind: WebSocket, Polling: true}, nil
	case "Connected(WebSocket.streaming)":
		return ConnectedSessionStatus{Kind: WebSocket, Polling: false}, nil
	default:
		return nil, fmt.Errorf("streamer: unrecognized session status %q", s)
	}
}
