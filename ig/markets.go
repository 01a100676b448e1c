package ig

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// MarketDetails is the broker's full instrument snapshot: identity,
// trading rules, and the current price. cache.Market persists only the
// subset a caller chooses to keep across runs; this type carries everything
// the endpoint returns.
type MarketDetails struct {
	Epic           string          `json:"epic"`
	InstrumentName string          `json:"instrumentName"`
	InstrumentType string          `json:"instrumentType"`
	Expiry         string          `json:"expiry"`
	MarketStatus   string          `json:"marketStatus"`
	Bid            decimal.Decimal `json:"bid"`
	Offer          decimal.Decimal `json:"offer"`
	High           decimal.Decimal `json:"high"`
	Low            decimal.Decimal `json:"low"`
}

type marketDetailsWire struct {
	Instrument struct {
		Epic   string `json:"epic"`
		Name   string `json:"name"`
		Type   string `json:"type"`
		Expiry string `json:"expiry"`
	} `json:"instrument"`
	Snapshot struct {
		MarketStatus string          `json:"marketStatus"`
		Bid          decimal.Decimal `json:"bid"`
		Offer        decimal.Decimal `json:"offer"`
		High         decimal.Decimal `json:"high"`
		Low          decimal.Decimal `json:"low"`
	} `json:"snapshot"`
}

func (w marketDetailsWire) toDetails() MarketDetails {
	return MarketDetails{
		Epic:           w.Instrument.Epic,
		InstrumentName: w.Instrument.Name,
		InstrumentType: w.Instrument.Type,
		Expiry:         w.Instrument.Expiry,
		MarketStatus:   w.Snapshot.MarketStatus,
		Bid:            w.Snapshot.Bid,
		Offer:          w.Snapshot.Offer,
		High:           w.Snapshot.High,
		Low:            w.Snapshot.Low,
	}
}

type marketsResponse struct {
	MarketDetails []marketDetailsWire `json:"marketDetails"`
}

// Markets returns details for each of the given epics in one round trip.
func (c *Client) Markets(ctx context.Context, epics []string) ([]MarketDetails, error) {
	return call(ctx, c, func() ([]MarketDetails, error) {
		b := c.builder()
		q := url.Values{"epics": {strings.Join(epics, ",")}}
		req, err := b.makeRequest(ctx, http.MethodGet, "/markets", 2, true, q, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		out, err := decodeJSON[marketsResponse](resp)
		if err != nil {
			return nil, err
		}
		details := make([]MarketDetails, 0, len(out.MarketDetails))
		for _, w := range out.MarketDetails {
			details = append(details, w.toDetails())
		}
		return details, nil
	})
}

// Market returns details for a single epic.
func (c *Client) Market(ctx context.Context, epic string) (*MarketDetails, error) {
	return call(ctx, c, func() (*MarketDetails, error) {
		b := c.builder()
		req, err := b.makeRequest(ctx, http.MethodGet, "/markets/"+epic, 3, true, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return nil, err
		}
		out, err := decodeJSON[marketDetailsWire](resp)
		if err != nil {
			return nil, err
		}
		details := out.toDetails()
		return &details, nil
	})
}
