// Package catalog is the read-only HTTP client for the remote catalog
// service. Product listings are hot and identical across visitors, so
// concurrent fetches for one category collapse through singleflight and a
// circuit breaker sheds load while the service is down.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
	sfg     singleflight.Group
	breaker *gobreaker.CircuitBreaker[[]domain.Product]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[[]domain.Product](gobreaker.Settings{
			Name: "catalog",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// ProductsByCategory lists the category's products.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	v, err, _ := c.sfg.Do(category, func() (interface{}, error) {
		return c.breaker.Execute(func() ([]domain.Product, error) {
			return c.fetch(ctx, category)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

func (c *Client) fetch(ctx context.Context, category string) ([]domain.Product, error) {
	u := fmt.Sprintf("%s/products?category=%s", c.baseURL, url.QueryEscape(category))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned %s", resp.Status)
	}

	var products []domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode product list: %w", err)
	}
	return products, nil
}
