package ig

import (
	"context"
	"fmt"
	"net/http"
)

type positionEnvelope struct {
	Position Position `json:"position"`
	Market   struct {
		Epic string `json:"epic"`
	} `json:"market"`
}

type positionsResponse struct {
	Positions []positionEnvelope `json:"positions"`
}

// Positions returns every open position on the current account.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	return call(ctx, c, func() ([]Position, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodGet, "/positions", 2, true, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		out, err := decodeJSON[positionsResponse](resp)
		if err != nil {
			return nil, err
		}
		positions := make([]Position, 0, len(out.Positions))
		for _, env := range out.Positions {
			pos := env.Position
			pos.Epic = env.Market.Epic
			positions = append(positions, pos)
		}
		return positions, nil
	})
}

// Position returns a single open position by deal ID.
func (c *Client) Position(ctx context.Context, dealID string) (*Position, error) {
	return call(ctx, c, func() (*Position, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodGet, "/positions/"+dealID, 2, true, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		out, err := decodeJSON[positionEnvelope](resp)
		if err != nil {
			return nil, err
		}
		pos := out.Position
		pos.Epic = out.Market.Epic
		return &pos, nil
	})
}

// WorkingOrders returns every working order resting on the account's book.
func (c *Client) WorkingOrders(ctx context.Context) ([]WorkingOrder, error) {
	return call(ctx, c, func() ([]WorkingOrder, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodGet, "/workingorders", 2, true, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		out, err := decodeJSON[workingOrdersResponse](resp)
		if err != nil {
			return nil, err
		}
		return out.WorkingOrders, nil
	})
}

// PlaceWorkingOrder submits a new working order and returns its confirmed
// Deal. If req.DealReference is empty, one is generated so the confirmation
// lookup below always has something to key on.
func (c *Client) PlaceWorkingOrder(ctx context.Context, req PlaceWorkingOrderRequest) (*Deal, error) {
	return call(ctx, c, func() (*Deal, error) {
		if req.DealReference == "" {
			req.DealReference = newDealReference()
		}
		b := c.builder()
		httpReq, err := b.makeRequest(ctx, http.MethodPost, "/workingorders/otc", 2, true, nil, nil, req)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(httpReq, http.StatusOK)
		if err != nil {
			return nil, err
		}
		placed, err := decodeJSON[dealReferenceResponse](resp)
		if err != nil {
			return nil, err
		}
		return c.confirm(ctx, placed.DealReference)
	})
}

// DeleteWorkingOrder cancels a resting working order and returns its
// confirmed Deal.
func (c *Client) DeleteWorkingOrder(ctx context.Context, dealID string) (*Deal, error) {
	return call(ctx, c, func() (*Deal, error) {
		b := c.builder()
		headers := http.Header{"_method": []string{http.MethodDelete}}
		httpReq, err := b.makeRequest(ctx, http.MethodPost, "/workingorders/otc/"+dealID, 2, true, nil, headers, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(httpReq, http.StatusOK)
		if err != nil {
			return nil, err
		}
		deleted, err := decodeJSON[dealReferenceResponse](resp)
		if err != nil {
			return nil, err
		}
		return c.confirm(ctx, deleted.DealReference)
	})
}

// confirm fetches the deal confirmation for a just-submitted dealReference.
// Placing or deleting a working order only returns a reference; the broker
// confirms the outcome (accepted or rejected) asynchronously on this
// separate endpoint.
func (c *Client) confirm(ctx context.Context, dealReference string) (*Deal, error) {
	if dealReference == "" {
		return nil, newError(InvalidResponse, "broker returned an empty deal reference")
	}
	b := c.builder()
	req, err := b.makeRequest(ctx, http.MethodGet, fmt.Sprintf("/confirms/%s", dealReference), 1, true, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.send(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	deal, err := decodeJSON[Deal](resp)
	if err != nil {
		return nil, err
	}
	return &deal, nil
}
