// Package api is the HTTP client for the upstream storefront service: the
// product catalog and order submission endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"larek/internal/model"
)

// Resolver maps a bare product id to a full product. The catalog endpoint may
// answer with ids only; those are resolved against the already-known catalog.
type Resolver func(id string) *model.Product

// Client calls the upstream catalog/order API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	resolver   Resolver

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client with baseURL and optional API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
	}
}

// SetRateLimit overrides the default outbound rate limit.
func (c *Client) SetRateLimit(perSecond float64, burst int) {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseCatalogResolver configures resolution of bare-id catalog entries.
func (c *Client) UseCatalogResolver(resolver Resolver) {
	c.resolver = resolver
}

// productsResponse is the catalog payload. Items are either full product
// objects or bare id strings.
type productsResponse struct {
	Total int               `json:"total"`
	Items []json.RawMessage `json:"items"`
}

// OrderRequest bundles buyer fields, cart item ids and the total.
type OrderRequest struct {
	Payment model.Payment `json:"payment"`
	Email   string        `json:"email"`
	Phone   string        `json:"phone"`
	Address string        `json:"address"`
	Items   []string      `json:"items"`
	Total   int           `json:"total"`
}

// OrderResponse is the server acknowledgement of an order.
type OrderResponse struct {
	ID    string `json:"id"`
	Total int    `json:"total"`
}

// FetchProducts loads the catalog. Bare-id entries are resolved through the
// configured resolver; unresolvable ids are skipped.
func (c *Client) FetchProducts(ctx context.Context) ([]model.Product, error) {
	endpoint := c.baseURL + "/product/"
	var resp productsResponse

	if !c.readCache(ctx, "products", &resp) {
		if err := c.doGet(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("fetch products: %w", err)
		}
		c.writeCache(ctx, "products", resp)
	}

	products := make([]model.Product, 0, len(resp.Items))
	for _, raw := range resp.Items {
		var p model.Product
		if err := json.Unmarshal(raw, &p); err == nil && p.ID != "" {
			products = append(products, p)
			continue
		}
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("fetch products: unexpected item shape: %s", raw)
		}
		if c.resolver == nil {
			continue
		}
		if resolved := c.resolver(id); resolved != nil {
			products = append(products, *resolved)
		}
	}
	return products, nil
}

// SendOrder submits an order and returns the server acknowledgement.
func (c *Client) SendOrder(ctx context.Context, order OrderRequest) (*OrderResponse, error) {
	endpoint := c.baseURL + "/order/"
	var resp OrderResponse
	if err := c.doPost(ctx, endpoint, order, &resp); err != nil {
		return nil, fmt.Errorf("send order: %w", err)
	}
	return &resp, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(ctx, req, out)
}

func (c *Client) doPost(ctx context.Context, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, req *http.Request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}
}
