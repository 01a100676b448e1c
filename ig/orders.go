package ig

import "github.com/shopspring/decimal"

// WorkingOrder is a pending (not yet triggered) order resting on the
// broker's book.
type WorkingOrder struct {
	DealID       string          `json:"dealId"`
	Epic         string          `json:"epic"`
	Direction    string          `json:"direction"`
	OrderType    string          `json:"orderType"`
	OrderSize    decimal.Decimal `json:"orderSize"`
	OrderLevel   decimal.Decimal `json:"orderLevel"`
	GoodTillDate string          `json:"goodTillDate,omitempty"`
	CurrencyCode string          `json:"currencyCode"`
}

// PlaceWorkingOrderRequest is the payload for PlaceWorkingOrder. DealReference
// is optional; callers that leave it blank get one generated by
// newDealReference so the confirmation lookup always has something to key
// on.
type PlaceWorkingOrderRequest struct {
	Epic          string          `json:"epic"`
	Direction     string          `json:"direction"`
	OrderType     string          `json:"type"`
	Size          decimal.Decimal `json:"size"`
	Level         decimal.Decimal `json:"level"`
	CurrencyCode  string          `json:"currencyCode"`
	GoodTillDate  string          `json:"goodTillDate,omitempty"`
	DealReference string          `json:"dealReference,omitempty"`
}

type dealReferenceResponse struct {
	DealReference string `json:"dealReference"`
}

type workingOrdersResponse struct {
	WorkingOrders []WorkingOrder `json:"workingOrders"`
}
