package ig

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TransactionOpts narrows a Transactions query the same way ActivityOpts
// narrows Activities.
type TransactionOpts struct {
	From     time.Time
	To       time.Time
	PageSize int
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	Metadata     struct {
		PageData pageData `json:"pageData"`
	} `json:"metadata"`
}

// Transactions streams every cash transaction entry in the requested
// window, following pagination transparently, exactly like Activities.
func (c *Client) Transactions(ctx context.Context, opts TransactionOpts) (<-chan Transaction, <-chan error) {
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

	initial, err := b.makeRequest(ctx, http.MethodGet, "/history/transactions", 2, true, q, nil, nil)
	if err != nil {
		errCh := make(chan error, 1)
		errCh <- err
		close(errCh)
		items := make(chan Transaction)
		close(items)
		return items, errCh
	}

	call := func(ctx context.Context, req *http.Request) (PageMetadata, []Transaction, error) {
		resp, err := b.send(req, http.StatusOK)
		if err != nil {
			return PageMetadata{}, nil, err
		}
		out, err := decodeJSON[transactionsResponse](resp)
		if err != nil {
			return PageMetadata{}, nil, err
		}
		return PageMetadata{
			PageSize:   out.Metadata.PageData.PageSize,
			PageNumber: out.Metadata.PageData.PageNumber,
			TotalPages: out.Metadata.PageData.TotalPages,
		}, out.Transactions, nil
	}

	return sendPaginating(ctx, initial, nextPageByNumber, call)
}
