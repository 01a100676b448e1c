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

func TestAccountsDecodesList(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"accounts": [
				{"accountId":"A1","accountName":"Spread bet","accountType":"SPREADBET","preferred":true,
				 "balance":1000.50,"deposit":100,"profitLoss":5.25,"available":895.25,"currency":"GBP"}
			]
		}`)
	}))
	defer ts.Close()

	c := testClient(t, ts)
	withCertCreds(t, c)

	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "A1", accounts[0].AccountID)
	assert.True(t, accounts[0].Preferred)
	assert.Equal(t, "1000.5", accounts[0].Balance.String())
}
