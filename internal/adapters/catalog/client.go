// internal/adapters/catalog/client.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vanamwellness/checkout-service/internal/domain"
	"github.com/vanamwellness/checkout-service/internal/ports"
)

const cachePrefix = "catalog:"

// Client talks to the storefront catalog REST API. GET responses are cached when a
// cache is configured; a cache failure only costs a round trip.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	cache   ports.CachePort
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, cache ports.CachePort, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid catalog base url %q", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		logger:  logger,
	}, nil
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type productData struct {
	Product domain.Product `json:"product"`
}

type categoriesData struct {
	Categories []struct {
		ID    string `json:"_id"`
		Count int    `json:"count"`
	} `json:"categories"`
}

func (c *Client) ListProducts(ctx context.Context, q domain.ProductQuery) (*domain.ProductPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		params.Set("sortOrder", q.SortOrder)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Tag != "" {
		params.Set("tag", q.Tag)
	}

	var out envelope[domain.ProductPage]
	if err := c.getJSON(ctx, "/products", params, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) GetProduct(ctx context.Context, slugOrID string) (*domain.Product, error) {
	path, err := productPath(slugOrID)
	if err != nil {
		return nil, err
	}
	var out envelope[productData]
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Data.Product.ID == "" && out.Data.Product.Slug == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, slugOrID)
	}
	return &out.Data.Product, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var out envelope[categoriesData]
	if err := c.getJSON(ctx, "/products/categories", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Data.Categories))
	for _, cat := range out.Data.Categories {
		names = append(names, cat.ID)
	}
	return names, nil
}

func (c *Client) TrackView(ctx context.Context, productID string) error {
	path, err := productPath(productID)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, path+"/view", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("track view: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Invalidate drops every cached catalog response.
func (c *Client) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.DeleteByPrefix(ctx, cachePrefix)
}

// productPath escapes slugOrID into a single path segment.
func productPath(slugOrID string) (string, error) {
	switch slugOrID {
	case "", ".", "..":
		return "", fmt.Errorf("%w: %q", domain.ErrProductNotFound, slugOrID)
	}
	return "/products/" + url.PathEscape(slugOrID), nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dst interface{}) error {
	key := cachePrefix + path
	if len(params) > 0 {
		key += "?" + params.Encode()
	}
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, key); err == nil {
			if err := json.Unmarshal(data, dst); err == nil {
				return nil
			}
		}
	}

	resp, err := c.do(ctx, http.MethodGet, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, path)
	case resp.StatusCode >= 300:
		return fmt.Errorf("catalog %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read catalog response: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}

	if c.cache != nil {
		// RawMessage is stored as-is by the JSON cache
		if err := c.cache.Set(ctx, key, json.RawMessage(body)); err != nil {
			c.logger.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values) (*http.Response, error) {
	// path arrives escaped; RawPath keeps an escaped "/" from splitting a segment
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, fmt.Errorf("catalog path %q: %w", path, err)
	}
	u.Path = unescaped
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog %s %s: %w", method, path, err)
	}
	return resp, nil
}
