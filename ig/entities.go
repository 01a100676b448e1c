package ig

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

//go:generate go install github.com/mailru/easyjson/...@v0.7.7
//go:generate easyjson -all -snake_case $GOFILE

// DealStatus is the closed sum of outcomes a deal confirmation can report.
// Accepted carries the broker's free-form detail string; Rejected carries
// the reason code.
type DealStatus interface {
	isDealStatus()
}

// AcceptedDeal means the deal was confirmed by the broker.
type AcceptedDeal struct {
	Details string `json:"details,omitempty"`
}

func (AcceptedDeal) isDealStatus() {}

// RejectedDeal means the broker refused the deal.
type RejectedDeal struct {
	Reason string `json:"reason"`
}

func (RejectedDeal) isDealStatus() {}

// Deal is a confirmed or rejected trade, as returned by the confirms
// endpoint or carried on a TRADE streaming item.
type Deal struct {
	DealReference string     `json:"dealReference"`
	DealID        string     `json:"dealId"`
	Epic          string     `json:"epic"`
	Direction     string     `json:"direction"`
	Size          decimal.Decimal `json:"size"`
	Level         decimal.Decimal `json:"level"`
	Status        DealStatus `json:"-"`
	Date          time.Time  `json:"date"`
}

// PositionStatus is the closed sum of lifecycle transitions a Position can
// report on the streaming TRADE item.
type PositionStatus int

const (
	PositionOpen PositionStatus = iota
	PositionUpdated
	PositionDeleted
)

func (s PositionStatus) String() string {
	switch s {
	case PositionOpen:
		return "OPEN"
	case PositionUpdated:
		return "UPDATED"
	case PositionDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Position is an open trade held on the account.
type Position struct {
	DealID       string          `json:"dealId"`
	Epic         string          `json:"epic"`
	Direction    string          `json:"direction"`
	Size         decimal.Decimal `json:"size"`
	Level        decimal.Decimal `json:"level"`
	Currency     string          `json:"currency"`
	CreatedDate  time.Time       `json:"createdDate"`
	Status       PositionStatus  `json:"-"`
	LimitLevel   *decimal.Decimal `json:"limitLevel,omitempty"`
	StopLevel    *decimal.Decimal `json:"stopLevel,omitempty"`
}

// Account is one of the login identity's trading accounts.
type Account struct {
	AccountID   string          `json:"accountId"`
	AccountName string          `json:"accountName"`
	AccountType string          `json:"accountType"`
	Preferred   bool            `json:"preferred"`
	Balance     decimal.Decimal `json:"balance"`
	Deposit     decimal.Decimal `json:"deposit"`
	ProfitLoss  decimal.Decimal `json:"profitLoss"`
	Available   decimal.Decimal `json:"available"`
	Currency    string          `json:"currency"`
}

// Activity is one entry in the account's activity history.
type Activity struct {
	Date        civil.Date `json:"date"`
	Epic        string     `json:"epic"`
	Period      string     `json:"period"`
	DealID      string     `json:"dealId"`
	Channel     string     `json:"channel"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
}

// Transaction is one entry in the account's cash transaction history.
type Transaction struct {
	Date            civil.Date      `json:"date"`
	Instrument      string          `json:"instrumentName"`
	Period          string          `json:"period"`
	ProfitAndLoss   decimal.Decimal `json:"profitAndLoss"`
	Transfer        bool            `json:"transactionType"`
	OpenLevel       decimal.Decimal `json:"openLevel"`
	CloseLevel      decimal.Decimal `json:"closeLevel"`
	Size            decimal.Decimal `json:"size"`
	Currency        string          `json:"currency"`
	CashTransaction bool            `json:"cashTransaction"`
}
