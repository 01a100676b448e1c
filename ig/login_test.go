package ig

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/igmarkets/ig-go/internal/authn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresCertificateCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/session", r.URL.Path)
		assert.Equal(t, "2", r.Header.Get("Version"))
		w.Header().Set("CST", "cst-value")
		w.Header().Set("X-SECURITY-TOKEN", "xst-value")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"clientId": "client-1",
			"accountId": "account-1",
			"lightstreamerEndpoint": "https://demo-apd.marketdatasystems.com",
			"timezoneOffset": 0
		}`)
	}))
	defer ts.Close()

	c := testClient(t, ts)
	creds, err := c.Login(context.Background(), "user", "pass")
	require.NoError(t, err)
	assert.Equal(t, "client-1", creds.ClientID)
	assert.Equal(t, "account-1", creds.AccountID)

	stored := c.Credentials().Get()
	require.NotNil(t, stored)
	tok, ok := stored.Token.(authn.CertificateToken)
	require.True(t, ok)
	assert.Equal(t, "cst-value", tok.Access)
	assert.Equal(t, "xst-value", tok.Security)
}

func TestLoginFailsWithoutSecurityHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"clientId":"c","accountId":"a","lightstreamerEndpoint":"x","timezoneOffset":0}`)
	}))
	defer ts.Close()

	c := testClient(t, ts)
	_, err := c.Login(context.Background(), "user", "pass")
	require.Error(t, err)
	var igErr *Error
	require.ErrorAs(t, err, &igErr)
	assert.Equal(t, InvalidResponse, igErr.Kind)
}

func TestLogoutClearsCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := testClient(t, ts)
	withCertCreds(t, c)
	require.NoError(t, c.Logout(context.Background()))
	assert.Nil(t, c.Credentials().Get())
}

func TestRefreshTokenRejectsCertificateSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be contacted")
	}))
	defer ts.Close()

	c := testClient(t, ts)
	withCertCreds(t, c)
	_, err := c.RefreshToken(context.Background())
	require.Error(t, err)
	var igErr *Error
	require.ErrorAs(t, err, &igErr)
	assert.Equal(t, InvalidRequest, igErr.Kind)
}

func TestRefreshTokenUpdatesOAuthCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"access_token": "new-access",
			"refresh_token": "new-refresh",
			"scope": "trading",
			"token_type": "Bearer",
			"expires_in": "60"
		}`)
	}))
	defer ts.Close()

	c := testClient(t, ts)
	creds, err := authn.NewCredentials("client", "account", "abcdefghij0123456789abcdefghij0123456789",
		"https://demo-apd.marketdatasystems.com", "Europe/London",
		authn.OAuthToken{Access: "old-access", Refresh: "old-refresh", Scope: "trading", Type: "Bearer"},
		time.Now().Add(time.Hour))
	require.NoError(t, err)
	c.Credentials().Set(creds)

	next, err := c.RefreshToken(context.Background())
	require.NoError(t, err)
	tok, ok := next.Token.(authn.OAuthToken)
	require.True(t, ok)
	assert.Equal(t, "new-access", tok.Access)
	assert.Equal(t, "new-refresh", tok.Refresh)
}
