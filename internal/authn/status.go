package authn

import "time"

// Status is the closed sum of credential lifecycle states a CredentialStore
// can be observed in.
type Status interface {
	isStatus()
}

// LoggedOutStatus means no credentials are currently stored.
type LoggedOutStatus struct{}

func (LoggedOutStatus) isStatus() {}

// ExpiredStatus means credentials are stored but their expiration date has
// passed, or is within the near-expiry window.
type ExpiredStatus struct{}

func (ExpiredStatus) isStatus() {}

// ReadyStatus means credentials are stored and valid until Until.
type ReadyStatus struct {
	Until time.Time
}

func (ReadyStatus) isStatus() {}

// nearExpiryWindow is the safety margin before expiry: a token expiring
// within this window of now is treated as already expired.
const nearExpiryWindow = 100 * time.Millisecond

func statusFor(creds *Credentials, now time.Time) Status {
	if creds == nil {
		return LoggedOutStatus{}
	}
	if !creds.ExpirationDate.After(now.Add(nearExpiryWindow)) {
		return ExpiredStatus{}
	}
	return ReadyStatus{Until: creds.ExpirationDate}
}

func sameStatus(a, b Status) bool {
	switch av := a.(type) {
	case LoggedOutStatus:
		_, ok := b.(LoggedOutStatus)
		return ok
	case ExpiredStatus:
		_, ok := b.(ExpiredStatus)
		return ok
	case ReadyStatus:
		bv, ok := b.(ReadyStatus)
		return ok && av.Until.Equal(bv.Until)
	default:
		return false
	}
}
