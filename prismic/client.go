// Package prismic is a small client for the headless CMS REST API that
// supplies post records: list a document type page by page, follow a
// next-page cursor, and look a document up by its uid.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/eringen/spacetraveling/metrics"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("prismic: document not found")

// refTTL bounds how long a master ref is reused before the API root is asked again.
const refTTL = 30 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

// APIError is a non-2xx answer from the content source.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prismic: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("prismic: status %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	Endpoint          string        // API root, e.g. https://repo.cdn.prismic.io/api/v2
	AccessToken       string        // optional
	Timeout           time.Duration // per request (default 10s)
	RequestsPerSecond float64       // outbound throttle (default 10)
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Client talks to the content source. It is safe for concurrent use.
type Client struct {
	endpoint *url.URL
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger

	mu         sync.Mutex
	ref        string
	refFetched time.Time
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("prismic: endpoint is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("prismic: invalid endpoint %q", cfg.Endpoint)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		endpoint: u,
		token:    cfg.AccessToken,
		http:     hc,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		logger:   logger,
	}, nil
}

// ListByType returns the first page of documents of docType.
func (c *Client) ListByType(ctx context.Context, docType string, pageSize int) (*Response, error) {
	q := fmt.Sprintf(`[[at(document.type,%q)]]`, docType)
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(pageSize))
	return c.search(ctx, "list_by_type", q, params)
}

// FetchPage follows a next-page cursor previously returned by the source.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Response, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return nil, fmt.Errorf("prismic: invalid cursor: %w", err)
	}
	if u.Host != c.endpoint.Host {
		return nil, fmt.Errorf("prismic: cursor host %q does not match endpoint", u.Host)
	}
	if c.token != "" && u.Query().Get("access_token") == "" {
		params := u.Query()
		params.Set("access_token", c.token)
		u.RawQuery = params.Encode()
	}
	var resp Response
	if err := c.getJSON(ctx, "fetch_page", u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByUID returns the document of docType whose uid is uid, or ErrNotFound.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (*Document, error) {
	q := fmt.Sprintf(`[[at(my.%s.uid,%q)]]`, docType, uid)
	params := url.Values{}
	params.Set("pageSize", "1")
	resp, err := c.search(ctx, "get_by_uid", q, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// InvalidateRef forgets the cached master ref so the next query sees newly
// published content.
func (c *Client) InvalidateRef() {
	c.mu.Lock()
	c.ref = ""
	c.mu.Unlock()
}

func (c *Client) search(ctx context.Context, op, q string, params url.Values) (*Response, error) {
	ref, err := c.masterRef(ctx)
	if err != nil {
		return nil, err
	}
	params.Set("ref", ref)
	params.Set("q", q)
	if c.token != "" {
		params.Set("access_token", c.token)
	}
	u := *c.endpoint
	u.Path += "/documents/search"
	u.RawQuery = params.Encode()

	var resp Response
	if err := c.getJSON(ctx, op, u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) masterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.ref != "" && time.Since(c.refFetched) < refTTL {
		ref := c.ref
		c.mu.Unlock()
		return ref, nil
	}
	c.mu.Unlock()

	u := *c.endpoint
	if c.token != "" {
		u.RawQuery = url.Values{"access_token": {c.token}}.Encode()
	}
	var info apiInfo
	if err := c.getJSON(ctx, "api_root", u.String(), &info); err != nil {
		return "", err
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			c.mu.Lock()
			c.ref = r.Ref
			c.refFetched = time.Now()
			c.mu.Unlock()
			return r.Ref, nil
		}
	}
	return "", errors.New("prismic: api root has no master ref")
}

func (c *Client) getJSON(ctx context.Context, op, rawURL string, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("prismic: rate limit wait: %w", err)
	}

	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.RecordCMSRequest(op, outcome, time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("prismic: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("content source request failed", "operation", op, "error", err)
		return fmt.Errorf("prismic: %s: %w", op, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("prismic: read body: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		outcome = "not_found"
		return ErrNotFound
	case res.StatusCode < 200 || res.StatusCode > 299:
		apiErr := &APIError{StatusCode: res.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Message
			if apiErr.Message == "" {
				apiErr.Message = payload.Error
			}
		}
		c.logger.Error("content source returned an error", "operation", op, "status", res.StatusCode)
		return apiErr
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("prismic: decode %s response: %w", op, err)
	}
	outcome = "ok"
	return nil
}
