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

func TestActivitiesFollowsPagination(t *testing.T) {
	var requests []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Query().Get("pageNumber"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageNumber") {
		case "1", "":
			fmt.Fprint(w, `{
				"activities": [{"date":"2024-01-01","epic":"E1","type":"POSITION"}],
				"metadata": {"pageData": {"pageSize": 1, "pageNumber": 1, "totalPages": 2}}
			}`)
		case "2":
			fmt.Fprint(w, `{
				"activities": [{"date":"2024-01-02","epic":"E2","type":"POSITION"}],
				"metadata": {"pageData": {"pageSize": 1, "pageNumber": 2, "totalPages": 2}}
			}`)
		default:
			t.Fatalf("unexpected page request %s", r.URL.Query().Get("pageNumber"))
		}
	}))
	defer ts.Close()

	c := testClient(t, ts)
	withCertCreds(t, c)

	items, errs := c.Activities(context.Background(), ActivityOpts{})

	var got []Activity
	for a := range items {
		got = append(got, a)
	}
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "E1", got[0].Epic)
	assert.Equal(t, "E2", got[1].Epic)
}

func TestActivitiesFailsFastOnMalformedPageMetadata(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"activities": [{"date":"2024-01-01","epic":"E1","type":"POSITION"}],
			"metadata": {"pageData": {"pageSize": 1, "pageNumber": 0, "totalPages": 0}}
		}`)
	}))
	defer ts.Close()

	c := testClient(t, ts)
	withCertCreds(t, c)

	items, errs := c.Activities(context.Background(), ActivityOpts{})

	var got []Activity
	for a := range items {
		got = append(got, a)
	}
	assert.Len(t, got, 1)

	err := <-errs
	require.Error(t, err)
	var igErr *Error
	require.ErrorAs(t, err, &igErr)
	assert.Equal(t, InvalidRequest, igErr.Kind)
}
