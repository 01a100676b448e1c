// Package authn holds the credential material exchanged with the broker and
// the store that tracks its expiration.
package authn

import (
	"fmt"
	"regexp"
	"time"
)

var apiKeyPattern = regexp.MustCompile(`^[a-z0-9]{40}$`)

// ValidAPIKey reports whether s is a well-formed API key: 40 characters,
// lowercase letters and digits only.
func ValidAPIKey(s string) bool {
	return apiKeyPattern.MatchString(s)
}

// Credentials is the authentication material issued by a login exchange.
// A zero value is never valid; credentials are always constructed through
// NewCredentials or decoded from a login response.
type Credentials struct {
	ClientID       string
	AccountID      string
	APIKey         string
	StreamerURL    string
	Timezone       string
	Token          Token
	ExpirationDate time.Time
}

// NewCredentials validates apiKey and returns a Credentials value, or an
// error describing why the key is malformed.
func NewCredentials(clientID, accountID, apiKey, streamerURL, timezone string, token Token, expiration time.Time) (*Credentials, error) {
	if !ValidAPIKey(apiKey) {
		return nil, fmt.Errorf("authn: invalid API key: want 40 lowercase alphanumeric characters, got %q", apiKey)
	}
	return &Credentials{
		ClientID:       clientID,
		AccountID:      accountID,
		APIKey:         apiKey,
		StreamerURL:    streamerURL,
		Timezone:       timezone,
		Token:          token,
		ExpirationDate: expiration,
	}, nil
}

// StreamerPassword derives the CST|XST password used to authenticate the
// streaming channel. Only a Certificate token can produce one.
func (c *Credentials) StreamerPassword() (string, error) {
	cert, ok := c.Token.(CertificateToken)
	if !ok {
		return "", fmt.Errorf("authn: No Certificate credentials: cannot derive a streaming password from %T", c.Token)
	}
	return cert.streamerPassword(), nil
}

// clone returns a deep-enough copy so that a stored Credentials can be
// handed to readers without risking a data race on later mutation.
func (c *Credentials) clone() *Credentials {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
