package ig

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionsFollowsPagination(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageNumber") {
		case "1", "":
			fmt.Fprint(w, `{
				"transactions": [{"date":"2024-01-01","instrumentName":"EUR/USD","profitAndLoss":1.5,
				 "openLevel":1.1,"closeLevel":1.2,"size":1,"currency":"GBP"}],
				"metadata": {"pageData": {"pageSize": 1, "pageNumber": 1, "totalPages": 1}}
			}`)
		default:
			t.Fatalf("unexpected page request")
		}
	}))
	defer ts.Close()

	c := testClient(t, ts)
	withCertCreds(t, c)

	items, errs := c.Transactions(context.Background(), TransactionOpts{})
	var got []Transaction
	for tx := range items {
		got = append(got, tx)
	}
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "EUR/USD", got[0].Instrument)
}
