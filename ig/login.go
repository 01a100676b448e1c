package ig

import (
	"context"
	"net/http"
	"time"

	"github.com/igmarkets/ig-go/internal/authn"
)

// sessionTokenLifetime is how long a certificate-login session is valid for
// before the broker expects a fresh login; the broker does not return an
// explicit expiry for certificate sessions, so this value stands in for it.
const sessionTokenLifetime = 6 * time.Hour

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	ClientID              string `json:"clientId"`
	AccountID             string `json:"accountId"`
	LightstreamerEndpoint string `json:"lightstreamerEndpoint"`
	TimezoneOffset        int    `json:"timezoneOffset"`
}

// Login exchanges identifier/password for a certificate session, storing
// the resulting Credentials in the client's credential store (and so making
// them visible to anything sharing that store, e.g. a streamer.Channel).
func (c *Client) Login(ctx context.Context, identifier, password string) (*authn.Credentials, error) {
	return call(ctx, c, func() (*authn.Credentials, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodPost, "/session", 2, false, nil, nil,
			loginRequest{Identifier: identifier, Password: password})
		if err != nil {
			return nil, err
		}

		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}

		cst := resp.Header.Get("CST")
		xst := resp.Header.Get("X-SECURITY-TOKEN")
		login, err := decodeJSON[loginResponse](resp)
		if err != nil {
			return nil, err
		}
		if cst == "" || xst == "" {
			return nil, newError(InvalidResponse, "login response missing CST/X-SECURITY-TOKEN headers")
		}

		creds, err := authn.NewCredentials(
			login.ClientID,
			login.AccountID,
			c.opts.APIKey,
			login.LightstreamerEndpoint,
			time.FixedZone("", login.TimezoneOffset*3600).String(),
			authn.CertificateToken{Access: cst, Security: xst},
			time.Now().Add(sessionTokenLifetime),
		)
		if err != nil {
			return nil, newError(InvalidResponse, "broker returned invalid credentials").WithCause(err)
		}

		c.creds.Set(creds)
		return creds, nil
	})
}

// Logout ends the current session and clears the client's credential
// store, publishing a LoggedOut status to anything subscribed to it.
func (c *Client) Logout(ctx context.Context) error {
	_, err := call(ctx, c, func() (struct{}, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodDelete, "/session", 1, true, nil, nil, nil)
		if err != nil {
			return struct{}{}, err
		}
		resp, err := b.send(req, http.StatusNoContent)
		if err != nil {
			return struct{}{}, err
		}
		resp.Body.Close()
		c.creds.Set(nil)
		return struct{}{}, nil
	})
	return err
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
	ExpiresIn    string `json:"expires_in"`
}

// RefreshToken exchanges the stored OAuth refresh token for a new access
// token, updating the credential store in place. It fails with
// InvalidRequest if the stored credentials are not an OAuth session, since
// certificate sessions have no refresh flow and must Login again instead.
func (c *Client) RefreshToken(ctx context.Context) (*authn.Credentials, error) {
	return call(ctx, c, func() (*authn.Credentials, error) {
		current := c.creds.Get()
		if current == nil {
			return nil, newError(SessionExpired, "no session to refresh").
				WithSuggestion("call Login first")
		}
		oauth, ok := current.Token.(authn.OAuthToken)
		if !ok {
			return nil, newError(InvalidRequest, "stored credentials are not an OAuth session").
				WithSuggestion("certificate sessions cannot be refreshed; call Login again")
		}

		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodPost, "/session/refresh-token", 1, false, nil, nil,
			refreshTokenRequest{RefreshToken: oauth.Refresh})
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		refreshed, err := decodeJSON[refreshTokenResponse](resp)
		if err != nil {
			return nil, err
		}

		expiresIn, parseErr := time.ParseDuration(refreshed.ExpiresIn + "s")
		if parseErr != nil {
			expiresIn = sessionTokenLifetime
		}

		next, err := authn.NewCredentials(
			current.ClientID, current.AccountID, current.APIKey, current.StreamerURL, current.Timezone,
			authn.OAuthToken{
				Access:  refreshed.AccessToken,
				Refresh: refreshed.RefreshToken,
				Scope:   refreshed.Scope,
				Type:    refreshed.TokenType,
			},
			time.Now().Add(expiresIn),
		)
		if err != nil {
			return nil, newError(InvalidResponse, "broker returned invalid credentials").WithCause(err)
		}
		c.creds.Set(next)
		return next, nil
	})
}
