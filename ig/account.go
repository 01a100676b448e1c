package ig

import (
	"context"
	"net/http"
)

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// Accounts returns every trading account available to the logged-in
// identity.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	return call(ctx, c, func() ([]Account, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodGet, "/accounts", 1, true, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		out, err := decodeJSON[accountsResponse](resp)
		if err != nil {
			return nil, err
		}
		return out.Accounts, nil
	})
}
