package authn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenJSONRoundTrip(t *testing.T) {
	cases := []Token{
		CertificateToken{Access: "abc", Security: "def"},
		OAuthToken{Access: "tok", Refresh: "ref", Scope: "trade", Type: "Bearer"},
	}
	for _, tok := range cases {
		data, err := MarshalTokenJSON(tok)
		require.NoError(t, err)
		decoded, err := UnmarshalTokenJSON(data)
		require.NoError(t, err)
		assert.Equal(t, tok, decoded)

		reencoded, err := MarshalTokenJSON(decoded)
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(reencoded))
	}
}

func TestUnmarshalTokenJSONPicksVariantBySecurityPresence(t *testing.T) {
	cert, err := UnmarshalTokenJSON([]byte(`{"access":"a","security":"s"}`))
	require.NoError(t, err)
	assert.Equal(t, CertificateToken{Access: "a", Security: "s"}, cert)

	oauth, err := UnmarshalTokenJSON([]byte(`{"access":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, OAuthToken{Access: "a"}, oauth)
}

func TestCertificateTokenStreamerPassword(t *testing.T) {
	cases := []struct {
		name string
		tok  CertificateToken
		want string
	}{
		{"both halves", CertificateToken{Access: "abc", Security: "def"}, "CST-abc|XST-def"},
		{"access only", CertificateToken{Access: "abc"}, "CST-abc"},
		{"security only", CertificateToken{Security: "def"}, "XST-def"},
		{"neither", CertificateToken{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tok.streamerPassword())
		})
	}
}

func TestValidAPIKey(t *testing.T) {
	valid := "abcdefghij0123456789abcdefghij0123456789"
	require.Len(t, valid, 40)
	assert.True(t, ValidAPIKey(valid))
	assert.False(t, ValidAPIKey(valid+"0"))        // 41 chars
	assert.False(t, ValidAPIKey(valid[:39]+"A"))   // uppercase
	assert.False(t, ValidAPIKey(valid[:39]))       // too short
}

func TestCredentialsStreamerPasswordRejectsOAuth(t *testing.T) {
	creds, err := NewCredentials("client", "account", "abcdefghij0123456789abcdefghij0123456789",
		"https://demo-apd.marketdatasystems.com", "Europe/London", OAuthToken{Access: "tok"}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = creds.StreamerPassword()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No Certificate credentials")
}
