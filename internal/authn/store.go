package authn

import (
	"sync"
	"time"

	"github.com/igmarkets/ig-go/internal/broadcast"
	"github.com/igmarkets/ig-go/internal/ctxtime"
)

// CredentialStore holds zero-or-one Credentials under mutual exclusion and
// publishes status transitions derived from the stored expiration date.
//
// get/set/modify observe effects-before-next-stage ordering: modify's
// function runs with the store locked, so no other get/set/modify may
// interleave with it. The credential lock is never held while a status
// event is published downstream, to avoid the classic
// set -> status subscriber -> set deadlock.
type CredentialStore struct {
	mu    sync.Mutex
	creds *Credentials
	timer *ctxtime.Timer

	status *broadcast.Dedup[Status]
}

// NewCredentialStore returns an empty store in the LoggedOut state.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		status: broadcast.NewDedup[Status](func(a, b Status) bool { return sameStatus(a, b) }),
	}
}

// Get returns a snapshot of the currently stored credentials, or nil.
func (s *CredentialStore) Get() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.clone()
}

// Set replaces the stored credentials and applies the transition rules of
// the credential lifecycle: a timer is armed for the new expiration, an
// unchanged expiration date is a silent no-op, and a status event (if any)
// is published only after the lock is released.
func (s *CredentialStore) Set(creds *Credentials) {
	s.mu.Lock()
	event, publish := s.applyLocked(creds)
	s.mu.Unlock()
	if publish {
		s.status.Publish(event)
	}
}

// applyLocked stores creds and computes the resulting status transition. It
// must be called with s.mu held.
func (s *CredentialStore) applyLocked(creds *Credentials) (Status, bool) {
	prevExp, hasPrevExp := s.expiration()
	s.creds = creds.clone()
	newExp, hasNewExp := s.expiration()

	if hasPrevExp == hasNewExp && (!hasNewExp || prevExp.Equal(newExp)) {
		return nil, false
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	event := statusFor(s.creds, time.Now())

	if ready, ok := event.(ReadyStatus); ok {
		delay := time.Until(ready.Until)
		s.timer = ctxtime.AfterFunc(delay, s.fireExpiration)
	}

	return event, true
}

// fireExpiration runs when the armed timer elapses; it clears the pending
// timer handle and publishes Expired without holding the credential lock
// across the publish.
func (s *CredentialStore) fireExpiration() {
	s.mu.Lock()
	s.timer = nil
	s.mu.Unlock()
	s.status.Publish(ExpiredStatus{})
}

func (s *CredentialStore) expiration() (time.Time, bool) {
	if s.creds == nil {
		return time.Time{}, false
	}
	return s.creds.ExpirationDate, true
}

// Modify runs f with exclusive access to the stored credentials and stores
// its result. If f returns an error, the store is left unchanged and the
// error is returned to the caller; the normal Set transition rules apply to
// a successful result.
func (s *CredentialStore) Modify(f func(*Credentials) (*Credentials, error)) error {
	s.mu.Lock()
	current := s.creds.clone()
	next, err := f(current)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	event, publish := s.applyLocked(next)
	s.mu.Unlock()

	if publish {
		s.status.Publish(event)
	}
	return nil
}

// Status returns the current credential status.
func (s *CredentialStore) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statusFor(s.creds, time.Now())
}

// StatusStream returns a channel of future status transitions, with
// adjacent duplicates removed, and a cancel function the caller must call
// when no longer interested.
func (s *CredentialStore) StatusStream() (<-chan Status, func()) {
	return s.status.Subscribe()
}
