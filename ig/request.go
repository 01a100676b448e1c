package ig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/igmarkets/ig-go/internal/authn"
)

const jsonMediaType = "application/json"

// requestBuilder composes one HTTPS call against a Client: build the
// *http.Request, dispatch it, and decode the body. It mirrors the teacher's
// client+get/post/patch/delete helper shape, generalized into named stages
// so callers can compose pagination and decoding independently (§4.2).
type requestBuilder struct {
	client *Client
}

func (c *Client) builder() *requestBuilder {
	return &requestBuilder{client: c}
}

// makeRequest builds an *http.Request against the client's base URL. When
// credentials is true it takes a fresh snapshot of the credential store and
// injects either the Certificate or OAuth header pair, failing with
// InvalidRequest if no credentials are stored.
func (b *requestBuilder) makeRequest(ctx context.Context, method, path string, version int, credentials bool, queries url.Values, headers http.Header, body interface{}) (*http.Request, error) {
	u, err := url.Parse(b.client.opts.BaseURL + path)
	if err != nil {
		return nil, newError(InvalidRequest, "malformed request path").WithCause(err).WithContext("path", path)
	}
	if queries != nil {
		u.RawQuery = queries.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, newError(InvalidRequest, "could not encode request body").WithCause(err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, newError(InvalidRequest, "could not build request").WithCause(err)
	}

	req.Header.Set("Version", strconv.Itoa(version))
	req.Header.Set("Content-Type", jsonMediaType+"; charset=UTF-8")
	req.Header.Set("Accept", jsonMediaType+"; charset=UTF-8")
	req.Header.Set("User-Agent", GetVersion())
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if credentials {
		if err := b.injectCredentials(req); err != nil {
			return nil, err
		}
	}

	return req, nil
}

func (b *requestBuilder) injectCredentials(req *http.Request) error {
	snap := b.client.creds.Get()
	if snap == nil {
		return newError(InvalidRequest, "no credentials").
			WithSuggestion("call Client.Login before making an authenticated request")
	}
	req.Header.Set("X-IG-API-KEY", snap.APIKey)

	switch tok := snap.Token.(type) {
	case authn.CertificateToken:
		req.Header.Set("X-CST", tok.Access)
		req.Header.Set("X-SECURITY-TOKEN", tok.Security)
	case authn.OAuthToken:
		req.Header.Set("Authorization", tok.Type+" "+tok.Access)
		req.Header.Set("IG-ACCOUNT-ID", snap.AccountID)
	default:
		return newError(InvalidRequest, "no credentials").
			WithSuggestion("call Client.Login before making an authenticated request")
	}
	return nil
}

// send dispatches req and asserts that the response status equals
// statusCode and that its Content-Type begins with the JSON media type.
// Mismatches, like transport failures, are wrapped as InvalidResponse (or
// CallFailed for the transport failure itself) rather than returned raw;
// only a cancelled or expired request context's error is returned as is.
func (b *requestBuilder) send(req *http.Request, statusCode int) (*http.Response, error) {
	resp, err := b.client.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, newError(CallFailed, "request failed").WithCause(err).WithContext("url", req.URL.String())
	}

	if resp.StatusCode != statusCode {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, newError(InvalidResponse, fmt.Sprintf("unexpected status %d, want %d", resp.StatusCode, statusCode)).
			WithContext("url", req.URL.String()).
			WithContext("body", string(body))
	}

	if ct := resp.Header.Get("Content-Type"); len(ct) < len(jsonMediaType) || ct[:len(jsonMediaType)] != jsonMediaType {
		defer resp.Body.Close()
		return nil, newError(InvalidResponse, fmt.Sprintf("unexpected content type %q", ct)).
			WithContext("url", req.URL.String())
	}

	return resp, nil
}

// decodeJSON parses resp's body as T, closing the body regardless of
// outcome. Decoding failures are wrapped as InvalidResponse with the
// underlying error attached.
func decodeJSON[T any](resp *http.Response) (T, error) {
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return v, newError(InvalidResponse, "malformed response body").WithCause(err)
	}
	return v, nil
}

// PageMetadata is the pagination envelope a paginated endpoint reports
// alongside each page of items.
type PageMetadata struct {
	PageSize   int
	PageNumber int
	TotalPages int
	// Next is the broker-relative URL for the following page, empty on the
	// final page.
	Next string
}

// sendPaginating repeatedly calls nextRequest to advance through pages,
// invoking call for each request and flattening every page's items onto the
// returned channel in arrival order. nextRequest returning more=false
// terminates cleanly; a non-nil error (a malformed `next` field) fails fast
// without performing any further I/O, per the pipeline's pagination
// contract. Both channels close once the combinator is done; ctx
// cancellation aborts in-flight work and is not reported as an error.
func sendPaginating[T any](
	ctx context.Context,
	initial *http.Request,
	nextRequest func(initial *http.Request, prev *PageMetadata) (next *http.Request, more bool, err error),
	call func(context.Context, *http.Request) (PageMetadata, []T, error),
) (<-chan T, <-chan error) {
	items := make(chan T)
	errCh := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errCh)

		req := initial
		var prev *PageMetadata
		for {
			meta, page, err := call(ctx, req)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				sendOne(ctx, errCh, err)
				return
			}

			for _, item := range page {
				select {
				case items <- item:
				case <-ctx.Done():
					return
				}
			}

			prevCopy := meta
			prev = &prevCopy

			next, more, err := nextRequest(initial, prev)
			if err != nil {
				sendOne(ctx, errCh, newError(InvalidRequest, "malformed paginated request").WithCause(err))
				return
			}
			if !more {
				return
			}

			select {
			case <-ctx.Done():
				return
			default:
			}
			req = next
		}
	}()

	return items, errCh
}

func sendOne[T any](ctx context.Context, ch chan<- T, v T) {
	select {
	case ch <- v:
	case <-ctx.Done():
	}
}
