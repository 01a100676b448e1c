package ig

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// dealWire is the broker's wire shape for a deal confirmation: dealStatus
// selects the DealStatus variant. authn's tokenWire is likewise one flat
// struct for several variants, but it picks the variant by whether a
// security token is present rather than by a tag field.
type dealWire struct {
	DealReference string          `json:"dealReference"`
	DealID        string          `json:"dealId"`
	Epic          string          `json:"epic"`
	Direction     string          `json:"direction"`
	Size          decimal.Decimal `json:"size"`
	Level         decimal.Decimal `json:"level"`
	DealStatus    string          `json:"dealStatus"`
	Reason        string          `json:"reason,omitempty"`
	Details       string          `json:"details,omitempty"`
	Date          string          `json:"date"`
}

// UnmarshalJSON decodes a broker deal confirmation, deriving Status from the
// dealStatus/reason fields.
func (d *Deal) UnmarshalJSON(data []byte) error {
	var w dealWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	date, err := time.Parse(time.RFC3339, w.Date)
	if err != nil {
		date, err = time.Parse("2006-01-02T15:04:05", w.Date)
		if err != nil {
			return fmt.Errorf("ig: malformed deal confirmation date %q: %w", w.Date, err)
		}
	}

	var status DealStatus
	switch w.DealStatus {
	case "ACCEPTED":
		status = AcceptedDeal{Details: w.Details}
	case "REJECTED":
		status = RejectedDeal{Reason: w.Reason}
	default:
		return fmt.Errorf("ig: unknown dealStatus %q", w.DealStatus)
	}

	*d = Deal{
		DealReference: w.DealReference,
		DealID:        w.DealID,
		Epic:          w.Epic,
		Direction:     w.Direction,
		Size:          w.Size,
		Level:         w.Level,
		Status:        status,
		Date:          date,
	}
	return nil
}

// MarshalJSON re-encodes a Deal in the same wire shape it was decoded from.
func (d Deal) MarshalJSON() ([]byte, error) {
	w := dealWire{
		DealReference: d.DealReference,
		DealID:        d.DealID,
		Epic:          d.Epic,
		Direction:     d.Direction,
		Size:          d.Size,
		Level:         d.Level,
		Date:          d.Date.Format(time.RFC3339),
	}
	switch s := d.Status.(type) {
	case AcceptedDeal:
		w.DealStatus = "ACCEPTED"
		w.Details = s.Details
	case RejectedDeal:
		w.DealStatus = "REJECTED"
		w.Reason = s.Reason
	}
	return json.Marshal(w)
}

// ParsePositionStatus parses the status string carried on a streaming TRADE
// update ("OPEN", "UPDATED", "DELETED") into a PositionStatus.
func ParsePositionStatus(s string) (PositionStatus, error) {
	switch s {
	case "OPEN":
		return PositionOpen, nil
	case "UPDATED":
		return PositionUpdated, nil
	case "DELETED":
		return PositionDeleted, nil
	default:
		return 0, newError(InvalidResponse, fmt.Sprintf("unknown position status %q", s)).
			WithContext("status", s)
	}
}
