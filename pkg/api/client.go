package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/gridpage/pkg/buildinfo"
	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/grid"
	"github.com/matzehuels/gridpage/pkg/httputil"
	"github.com/matzehuels/gridpage/pkg/page"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

const clientTimeout = 15 * time.Second

// Client talks to a gridpage API server. Idempotent requests (GET, PUT,
// DELETE) are retried on network errors and 5xx responses; mutations are
// sent once.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: clientTimeout},
	}
}

// Health returns the server's build information.
func (c *Client) Health(ctx context.Context) (buildinfo.Info, error) {
	var resp healthResponse
	err := c.call(ctx, http.MethodGet, "/healthz", nil, &resp, true)
	return resp.Build, err
}

// ListPages returns all page ids.
func (c *Client) ListPages(ctx context.Context) ([]string, error) {
	var resp PageList
	if err := c.call(ctx, http.MethodGet, "/v1/pages", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Pages, nil
}

// GetPage loads one page.
func (c *Client) GetPage(ctx context.Context, id string) (*page.Document, error) {
	var doc page.Document
	if err := c.call(ctx, http.MethodGet, pagePath(id), nil, &doc, true); err != nil {
		return nil, err
	}
	return &doc, nil
}

// PutPage imports doc on the server and returns the stored result.
func (c *Client) PutPage(ctx context.Context, doc *page.Document) (*pipeline.Result, error) {
	var res pipeline.Result
	if err := c.call(ctx, http.MethodPut, pagePath(doc.ID), doc, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeletePage removes a page.
func (c *Client) DeletePage(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, pagePath(id), nil, nil, true)
}

// Mutate applies one mutation to a stored page.
func (c *Client) Mutate(ctx context.Context, id string, args pipeline.Args) (*pipeline.Result, error) {
	var res pipeline.Result
	if err := c.call(ctx, http.MethodPost, pagePath(id)+"/mutations", MutationRequest{Args: args}, &res, false); err != nil {
		return nil, err
	}
	return &res, nil
}

// Layout runs a stateless layout operation.
func (c *Client) Layout(ctx context.Context, op string, req LayoutRequest) ([]grid.Block, error) {
	var resp LayoutResponse
	if err := c.call(ctx, http.MethodPost, "/v1/layout/"+url.PathEscape(op), req, &resp, true); err != nil {
		return nil, err
	}
	return resp.Blocks, nil
}

func pagePath(id string) string {
	return "/v1/pages/" + url.PathEscape(id)
}

// call sends one request. in is JSON-encoded when non-nil and out is decoded
// from 2xx responses when non-nil.
func (c *Client) call(ctx context.Context, method, path string, in, out any, retry bool) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	do := func() error {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", buildinfo.UserAgent())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeStore, err, "%s %s", method, path)}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			apiErr := httputil.ReadError(resp)
			if resp.StatusCode >= 500 {
				return &httputil.RetryableError{Err: apiErr}
			}
			return apiErr
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "decode response")
		}
		return nil
	}

	if !retry {
		return do()
	}
	return httputil.RetryWithBackoff(ctx, do)
}
