package ig

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealRoundTripAccepted(t *testing.T) {
	original := Deal{
		DealReference: "ref-1",
		DealID:        "D1",
		Epic:          "CS.D.EURUSD.CFD.IP",
		Direction:     "BUY",
		Size:          decimal.NewFromInt(1),
		Level:         decimal.NewFromFloat(1.1),
		Status:        AcceptedDeal{Details: "all good"},
		Date:          time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var roundTripped Deal
	require.NoError(t, json.Unmarshal(data, &roundTripped))

	assert.Equal(t, original.DealID, roundTripped.DealID)
	accepted, ok := roundTripped.Status.(AcceptedDeal)
	require.True(t, ok)
	assert.Equal(t, "all good", accepted.Details)
}

func TestDealRoundTripRejected(t *testing.T) {
	original := Deal{
		DealID: "D2",
		Status: RejectedDeal{Reason: "MARKET_CLOSED"},
		Date:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var roundTripped Deal
	require.NoError(t, json.Unmarshal(data, &roundTripped))

	rejected, ok := roundTripped.Status.(RejectedDeal)
	require.True(t, ok)
	assert.Equal(t, "MARKET_CLOSED", rejected.Reason)
}

func TestDealUnmarshalRejectsUnknownStatus(t *testing.T) {
	var d Deal
	err := json.Unmarshal([]byte(`{"dealStatus":"PENDING","date":"2024-01-01T00:00:00"}`), &d)
	require.Error(t, err)
}

func TestParsePositionStatus(t *testing.T) {
	s, err := ParsePositionStatus("OPEN")
	require.NoError(t, err)
	assert.Equal(t, PositionOpen, s)

	_, err = ParsePositionStatus("BOGUS")
	require.Error(t, err)
	var igErr *Error
	require.ErrorAs(t, err, &igErr)
	assert.Equal(t, InvalidResponse, igErr.Kind)
	assert.Equal(t, "BOGUS", igErr.Context["status"])
}
