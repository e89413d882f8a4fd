// ABOUTME: HTTP/JSON catalog client
// ABOUTME: Thumbnail fetches are rate limited and cached

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultMaxResourceBytes caps resource bodies when HTTPConfig leaves the limit unset
const DefaultMaxResourceBytes int64 = 8 << 20

// HTTPConfig configures an HTTPClient
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	// ResourceRate is the number of resource fetches allowed per second
	ResourceRate  float64
	ResourceBurst int
	// CacheSize is the number of resources kept in memory; zero disables caching
	CacheSize int
	// MaxResourceBytes caps a fetched resource body; zero uses DefaultMaxResourceBytes
	MaxResourceBytes int64
	Logger           zerolog.Logger
}

// HTTPClient talks to a catalog exposing POST /query and plain GET resources
type HTTPClient struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, []byte]
	maxBody int64
	log     zerolog.Logger
}

// NewHTTPClient creates a client for cfg.BaseURL
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("catalog url %q must be absolute", cfg.BaseURL)
	}

	limit := rate.Inf
	if cfg.ResourceRate > 0 {
		limit = rate.Limit(cfg.ResourceRate)
	}
	burst := cfg.ResourceBurst
	if burst < 1 {
		burst = 1
	}

	maxBody := cfg.MaxResourceBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxResourceBytes
	}

	c := &HTTPClient{
		base:    base,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		maxBody: maxBody,
		log:     cfg.Logger,
	}
	if cfg.CacheSize > 0 {
		c.cache, err = lru.New[string, []byte](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create resource cache: %w", err)
		}
	}
	return c, nil
}

// Query posts req to {base}/query
func (c *HTTPClient) Query(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath("query").String(), bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build query request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("query catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{}, fmt.Errorf("query catalog: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode query response: %w", err)
	}

	c.log.Debug().
		Str("query", req.Query).
		Int("offset", req.Offset).
		Int("records", len(out.Records)).
		Int("hits", out.Hits).
		Msg("Catalog query completed")
	return out, nil
}

// ResolveResource fetches uri, resolved against the base URL when relative
func (c *HTTPClient) ResolveResource(ctx context.Context, uri string) ([]byte, error) {
	target, err := c.base.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse resource uri: %w", err)
	}
	key := target.String()

	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			return data, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for resource slot: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, fmt.Errorf("build resource request: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch resource: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, key)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch resource %s: status %d", key, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read resource: %w", err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrResourceTooLarge, key, c.maxBody)
	}
	if c.cache != nil {
		c.cache.Add(key, data)
	}
	return data, nil
}
