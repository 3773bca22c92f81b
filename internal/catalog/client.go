package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// ErrProductNotFound marks an unresolvable product id, distinct from
// generic remote failures.
var ErrProductNotFound = errors.New("product not found")

// statusError carries the upstream HTTP status so callers can translate
// specific codes without string matching.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

// Client talks to the remote catalog API. All endpoints are plain
// request/response JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a catalog API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

// ProductPage is one page of the remote product listing.
type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
	Skip     int              `json:"skip"`
	Limit    int              `json:"limit"`
}

// FetchPage retrieves a page of products. A non-empty query takes
// precedence over category and runs a full-text search instead. Zero
// results are not an error.
func (c *Client) FetchPage(ctx context.Context, skip, limit int, category, query string) (*ProductPage, error) {
	params := url.Values{}
	params.Set("skip", strconv.Itoa(skip))
	params.Set("limit", strconv.Itoa(limit))

	var path string
	switch {
	case query != "":
		params.Set("q", query)
		path = "/products/search"
	case category != "":
		path = "/products/category/" + url.PathEscape(category)
	default:
		path = "/products"
	}

	var page ProductPage
	if err := c.getJSON(ctx, path+"?"+params.Encode(), "products", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchProduct retrieves a single product by id. Only here does a 404
// mean ErrProductNotFound; on any other endpoint it is a plain upstream
// failure.
func (c *Client) FetchProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := c.getJSON(ctx, fmt.Sprintf("/products/%d", id), "product", &product)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FetchCategories retrieves the raw category list. The response shape
// varies between API versions, so normalization happens at the caller.
func (c *Client) FetchCategories(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/products/categories", "categories", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) getJSON(ctx context.Context, path, concern string, dest interface{}) error {
	start := time.Now()
	defer func() {
		util.CatalogRequestLatency.WithLabelValues(concern).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.CatalogRequestsFailed.WithLabelValues(concern).Inc()
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		util.CatalogRequestsFailed.WithLabelValues(concern).Inc()
		msg := fmt.Sprintf("catalog returned %s for %s", resp.Status, path)
		var upstream struct {
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&upstream); decodeErr == nil && upstream.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, upstream.Message)
		}
		return &statusError{code: resp.StatusCode, msg: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		util.CatalogRequestsFailed.WithLabelValues(concern).Inc()
		return fmt.Errorf("decode response failed: %w", err)
	}

	return nil
}
