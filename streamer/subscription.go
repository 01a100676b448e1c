package streamer

import (
	"strings"
	"sync"
)

// Mode controls a Subscription's snapshot and update semantics.
type Mode int

const (
	Merge Mode = iota
	Distinct
	Raw
	Command
)

func (m Mode) String() string {
	switch m {
	case Merge:
		return "MERGE"
	case Distinct:
		return "DISTINCT"
	case Raw:
		return "RAW"
	case Command:
		return "COMMAND"
	default:
		return "UNKNOWN"
	}
}

// SubscriptionState is the closed sum of lifecycle states a Subscription
// moves through.
type SubscriptionState int

const (
	Idle SubscriptionState = iota
	Subscribing
	Subscribed
	UpdateFlowing
	Unsubscribing
	Removed
	Errored
)

func (s SubscriptionState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Subscribing:
		return "Subscribing"
	case Subscribed:
		return "Subscribed"
	case UpdateFlowing:
		return "UpdateFlowing"
	case Unsubscribing:
		return "Unsubscribing"
	case Removed:
		return "Removed"
	case Errored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// Field is one named value in an Update: the value itself (absent when
// nil) and whether it changed relative to the previous update for the
// same item.
type Field struct {
	Value   *string
	Changed bool
}

// Update is one delivery for a Subscription: a mapping from field name to
// its (value, changedSinceLast) pair, plus the name of the item the frame
// was for (in every mode; a Command update's key is in CommandKey).
type Update struct {
	Item   string
	Fields map[string]Field
	// CommandKey and CommandOp are populated only in Command mode: Op is
	// one of "ADD", "UPDATE", "DELETE" and Key is the command's key field.
	CommandKey string
	CommandOp  string
}

// CommandSchema computes field positions for a two-level (Command mode)
// subscription. Second-level fields are positioned starting at
// len(FirstLevelFields); first-level field names win on conflict.
type CommandSchema struct {
	FirstLevelFields  []string
	SecondLevelFields []string
}

// fieldAt returns the field name governing wire position i (0-based) and
// whether it is a second-level field.
func (c CommandSchema) fieldAt(i int) (name string, secondLevel bool, ok bool) {
	if i < len(c.FirstLevelFields) {
		return c.FirstLevelFields[i], false, true
	}
	j := i - len(c.FirstLevelFields)
	if j < len(c.SecondLevelFields) {
		return c.SecondLevelFields[j], true, true
	}
	return "", false, false
}

// allFields returns first-level fields followed by second-level fields,
// with any second-level name already present at first level dropped (first
// level wins on conflict).
func (c CommandSchema) allFields() []string {
	seen := make(map[string]bool, len(c.FirstLevelFields))
	out := make([]string, 0, len(c.FirstLevelFields)+len(c.SecondLevelFields))
	for _, f := range c.FirstLevelFields {
		seen[f] = true
		out = append(out, f)
	}
	for _, f := range c.SecondLevelFields {
		if !seen[f] {
			out = append(out, f)
		}
	}
	return out
}

// Subscription is a live registration of (mode, items, fields) against a
// Channel's streaming session. Updates() delivers typed Update values in
// server order; LostUpdates() is a non-fatal sideband notifying of dropped
// unfiltered updates.
type Subscription struct {
	id            int
	mode          Mode
	items         []string
	fields        []string
	wantsSnapshot bool
	schema        *CommandSchema // non-nil only in Command mode

	mu    sync.Mutex
	state SubscriptionState

	updates     chan Update
	lostUpdates chan int
	errs        chan error
	done        chan struct{}

	channel *Channel
}

// State returns the subscription's current lifecycle state.
func (s *Subscription) State() SubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Subscription) setState(state SubscriptionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Updates returns the channel on which this subscription's updates are
// delivered. It is closed when the subscription terminates (unsubscribed,
// channel disconnected, or unsubscribeAll).
func (s *Subscription) Updates() <-chan Update {
	return s.updates
}

// LostUpdates delivers a count each time the server reports it dropped
// that many consecutive unfiltered updates for this subscription. It is
// not fatal; Updates() continues to deliver afterwards.
func (s *Subscription) LostUpdates() <-chan int {
	return s.lostUpdates
}

// Errors delivers a SubscriptionError if the server reports a
// subscription-level failure. After an error, Updates() is closed.
func (s *Subscription) Errors() <-chan error {
	return s.errs
}

// Unsubscribe requests removal of this subscription from the channel. It
// is idempotent.
func (s *Subscription) Unsubscribe() error {
	return s.channel.unsubscribe(s)
}

func (s *Subscription) deliver(u Update) {
	s.setState(UpdateFlowing)
	select {
	case s.updates <- u:
	case <-s.done:
	}
}

func (s *Subscription) deliverLost(n int) {
	select {
	case s.lostUpdates <- n:
	case <-s.done:
	}
}

func (s *Subscription) fail(err error) {
	s.setState(Errored)
	select {
	case s.errs <- err:
	default:
	}
	s.terminate()
}

func (s *Subscription) terminate() {
	s.mu.Lock()
	if s.state == Removed {
		s.mu.Unlock()
		return
	}
	s.state = Removed
	s.mu.Unlock()

	close(s.done)
	close(s.updates)
}

// decodeUpdate parses one Lightstreamer-compatible update line of the form
// "item|field1|field2|..." (Merge/Distinct/Raw) or
// "item|key|op|field1|..." (Command), where an empty field text means
// "unchanged" for Merge/Distinct/Raw updates and '#' marks an explicitly
// absent value.
func (s *Subscription) decodeUpdate(line string) (Update, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 1 {
		return Update{}, newFrameParseError("empty update frame")
	}
	item := parts[0]
	rest := parts[1:]

	if s.mode == Command {
		if len(rest) < 2 {
			return Update{}, newFrameParseError("malformed command update frame")
		}
		key, op, values := rest[0], rest[1], rest[2:]
		u := Update{Item: item, CommandKey: key, CommandOp: op, Fields: map[string]Field{}}
		isDelete := strings.EqualFold(op, "DELETE")
		firstLevel := make(map[string]bool, len(s.schema.FirstLevelFields))
		for _, f := range s.schema.FirstLevelFields {
			firstLevel[f] = true
		}
		for i, v := range values {
			name, secondLevel, ok := s.schema.fieldAt(i)
			if !ok {
				break
			}
			// First level wins on a name conflict; a DELETE skips
			// second-level fields entirely.
			if secondLevel && (isDelete || firstLevel[name]) {
				continue
			}
			u.Fields[name] = valueToField(v, true)
		}
		if isDelete {
			for i := range s.schema.FirstLevelFields {
				name := s.schema.FirstLevelFields[i]
				u.Fields[name] = Field{Value: nil, Changed: true}
			}
		}
		return u, nil
	}

	u := Update{Item: item, Fields: map[string]Field{}}
	for i, v := range rest {
		if i >= len(s.fields) {
			break
		}
		name := s.fields[i]
		if v == "" {
			continue // unchanged: omit rather than report a false change
		}
		u.Fields[name] = valueToField(v, true)
	}
	return u, nil
}

func valueToField(raw string, changed bool) Field {
	if raw == "#" {
		return Field{Value: nil, Changed: changed}
	}
	v := raw
	return Field{Value: &v, Changed: changed}
}
