package ig

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"cloud.google.com/go/civil"
)

// ActivityOpts narrows an Activities query. A zero value fetches the
// broker's default window with the default page size.
type ActivityOpts struct {
	From     time.Time
	To       time.Time
	PageSize int
}

type pageData struct {
	PageSize   int `json:"pageSize"`
	PageNumber int `json:"pageNumber"`
	TotalPages int `json:"totalPages"`
}

type activitiesResponse struct {
	Activities []Activity `json:"activities"`
	Metadata   struct {
		PageData pageData `json:"pageData"`
	} `json:"metadata"`
}

// Activities streams every activity entry in the requested window,
// following pagination transparently. Both returned channels close once
// the broker reports no further pages; a malformed page-number response
// fails fast on the error channel without another request.
func (c *Client) Activities(ctx context.Context, opts ActivityOpts) (<-chan Activity, <-chan error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	b := c.builder()
	q := url.Values{}
	if !opts.From.IsZero() {
		q.Set("from", opts.From.Format(time.RFC3339))
	}
	if !opts.To.IsZero() {
		q.Set("to", opts.To.Format(time.RFC3339))
	}
	q.Set("pageSize", fmt.Sprint(pageSize))
	q.Set("pageNumber", "1")

	initial, err := b.makeRequest(ctx, http.MethodGet, "/history/activity", 3, true, q, nil, nil)
	if err != nil {
		errCh := make(chan error, 1)
		errCh <- err
		close(errCh)
		items := make(chan Activity)
		close(items)
		return items, errCh
	}

	call := func(ctx context.Context, req *http.Request) (PageMetadata, []Activity, error) {
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return PageMetadata{}, nil, err
		}
		out, err := decodeJSON[activitiesResponse](resp)
		if err != nil {
			return PageMetadata{}, nil, err
		}
		return PageMetadata{
			PageSize:   out.Metadata.PageData.PageSize,
			PageNumber: out.Metadata.PageData.PageNumber,
			TotalPages: out.Metadata.PageData.TotalPages,
		}, out.Activities, nil
	}

	return sendPaginating(ctx, initial, nextPageByNumber, call)
}

// nextPageByNumber advances a request's "pageNumber" query parameter based
// on the previous page's metadata. It is shared by Activities and
// Transactions, the pipeline's two paginated endpoints.
func nextPageByNumber(initial *http.Request, prev *PageMetadata) (*http.Request, bool, error) {
	if prev.PageNumber <= 0 || prev.TotalPages <= 0 {
		return nil, false, fmt.Errorf("ig: malformed page metadata %+v", *prev)
	}
	if prev.PageNumber >= prev.TotalPages {
		return nil, false, nil
	}
	next := initial.Clone(initial.Context())
	q := next.URL.Query()
	q.Set("pageNumber", fmt.Sprint(prev.PageNumber+1))
	next.URL.RawQuery = q.Encode()
	return next, true, nil
}

// activityDate is a convenience constructor for an Activity's civil Date
// field from a time.Time.
func activityDate(t time.Time) civil.Date {
	return civil.DateOf(t)
}
