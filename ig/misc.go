package ig

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// Sentiment is the crowd long/short percentage split for one market.
type Sentiment struct {
	MarketID         string          `json:"marketId"`
	LongPositionPct  decimal.Decimal `json:"longPositionPercentage"`
	ShortPositionPct decimal.Decimal `json:"shortPositionPercentage"`
}

// Sentiment returns the crowd sentiment for a single market.
func (c *Client) Sentiment(ctx context.Context, marketID string) (*Sentiment, error) {
	return call(ctx, c, func() (*Sentiment, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodGet, "/clientsentiment/"+marketID, 1, true, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		s, err := decodeJSON[Sentiment](resp)
		if err != nil {
			return nil, err
		}
		return &s, nil
	})
}

// NavigationNode is one entry in the market navigation hierarchy: a node
// has child nodes, markets, or both.
type NavigationNode struct {
	Nodes []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"nodes"`
	Markets []MarketDetails `json:"markets"`
}

// Nodes returns the navigation hierarchy rooted at nodeID, or the top-level
// hierarchy when nodeID is empty.
func (c *Client) Nodes(ctx context.Context, nodeID string) (*NavigationNode, error) {
	return call(ctx, c, func() (*NavigationNode, error) {
		path := "/marketnavigation"
		if nodeID != "" {
			path += "/" + nodeID
		}
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodGet, path, 1, true, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		n, err := decodeJSON[NavigationNode](resp)
		if err != nil {
			return nil, err
		}
		return &n, nil
	})
}

// Watchlist is a named, user-curated list of epics.
type Watchlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Editable   bool   `json:"editable"`
	Deleteable bool   `json:"deleteable"`
}

type watchlistsResponse struct {
	Watchlists []Watchlist `json:"watchlists"`
}

// Watchlists returns every watchlist owned by the current account.
func (c *Client) Watchlists(ctx context.Context) ([]Watchlist, error) {
	return call(ctx, c, func() ([]Watchlist, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodGet, "/watchlists", 1, true, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		out, err := decodeJSON[watchlistsResponse](resp)
		if err != nil {
			return nil, err
		}
		return out.Watchlists, nil
	})
}

type addToWatchlistRequest struct {
	Epic string `json:"epic"`
}

// AddToWatchlist appends epic to the named watchlist.
func (c *Client) AddToWatchlist(ctx context.Context, watchlistID, epic string) error {
	_, err := call(ctx, c, func() (struct{}, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodPut, "/watchlists/"+watchlistID, 1, true, nil, nil,
			addToWatchlistRequest{Epic: epic})
		if err != nil {
			return struct{}{}, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return struct{}{}, err
		}
		resp.Body.Close()
		return struct{}{}, nil
	})
	return err
}
