package authn

import "encoding/json"

// Token is the closed sum of the two credential variants a login exchange
// can return. Implementations are CertificateToken and OAuthToken.
type Token interface {
	isToken()
}

// CertificateToken pairs the CST/XST strings returned by certificate login.
type CertificateToken struct {
	Access   string // CST
	Security string // XST
}

func (CertificateToken) isToken() {}

// streamerPassword builds the CST-<access>|XST-<security> password,
// omitting empty halves and the separating "|" when only one half is present.
func (t CertificateToken) streamerPassword() string {
	var access, security string
	if t.Access != "" {
		access = "CST-" + t.Access
	}
	if t.Security != "" {
		security = "XST-" + t.Security
	}
	switch {
	case access != "" && security != "":
		return access + "|" + security
	case access != "":
		return access
	default:
		return security
	}
}

// OAuthToken is the bearer-token variant returned by OAuth login.
type OAuthToken struct {
	Access  string
	Refresh string
	Scope   string
	Type    string // e.g. "Bearer"
}

func (OAuthToken) isToken() {}

// tokenWire is the JSON shape a broker login response uses for either
// variant; the presence of "security" selects CertificateToken, otherwise
// the value decodes as OAuthToken.
type tokenWire struct {
	Access   string `json:"access,omitempty"`
	Security string `json:"security,omitempty"`
	Refresh  string `json:"refresh,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Type     string `json:"type,omitempty"`
}

// MarshalTokenJSON encodes a Token in the wire shape described above.
func MarshalTokenJSON(t Token) ([]byte, error) {
	switch v := t.(type) {
	case CertificateToken:
		return json.Marshal(tokenWire{Access: v.Access, Security: v.Security})
	case OAuthToken:
		return json.Marshal(tokenWire{Access: v.Access, Refresh: v.Refresh, Scope: v.Scope, Type: v.Type})
	default:
		return nil, errUnknownTokenKind
	}
}

// UnmarshalTokenJSON decodes the wire shape into the matching Token variant.
func UnmarshalTokenJSON(data []byte) (Token, error) {
	var w tokenWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.Security != "" {
		return CertificateToken{Access: w.Access, Security: w.Security}, nil
	}
	return OAuthToken{Access: w.Access, Refresh: w.Refresh, Scope: w.Scope, Type: w.Type}, nil
}

var errUnknownTokenKind = tokenKindError{}

type tokenKindError struct{}

func (tokenKindError) Error() string { return "authn: unknown token kind" }
