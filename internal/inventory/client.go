// Package inventory looks up stock ceilings from the inventory service.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/ghstore/pkg/httpclient"
)

const serviceName = "inventory"

// defaultVariant is the path segment used for products without variants.
const defaultVariant = "default"

// StockProvider reports how many units of a product variant can be sold.
type StockProvider interface {
	Available(ctx context.Context, productID, variantID string) (int, error)
}

// stockResponse mirrors the inventory service's stock record.
type stockResponse struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Reserved  int    `json:"reserved"`
}

type envelope struct {
	Data *stockResponse `json:"data"`
}

// Client calls the inventory service through a circuit breaker.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// NewClient creates an inventory client for baseURL.
func NewClient(baseURL string, cfg httpclient.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig(serviceName),
		logger,
	)
	return NewClientWithBreaker(baseURL, cb, logger)
}

// NewClientWithBreaker creates an inventory client over an existing breaker.
func NewClientWithBreaker(baseURL string, cb *httpclient.CircuitBreakerClient, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    cb,
		logger:  logger,
	}
}

// Available returns quantity minus reservations, never below zero. A product
// the inventory service does not know has no stock.
func (c *Client) Available(ctx context.Context, productID, variantID string) (int, error) {
	if variantID == "" {
		variantID = defaultVariant
	}
	endpoint := fmt.Sprintf("%s/api/v1/inventory/%s/variants/%s",
		c.baseURL, url.PathEscape(productID), url.PathEscape(variantID))

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("call inventory service: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		c.logger.DebugContext(ctx, "product unknown to inventory",
			slog.String("product_id", productID),
			slog.String("variant_id", variantID),
		)
		return 0, nil
	}

	var body envelope
	if err := httpclient.DecodeJSON(resp, &body, serviceName); err != nil {
		return 0, err
	}
	if body.Data == nil {
		return 0, fmt.Errorf("inventory service returned no stock record for %s", productID)
	}

	return max(body.Data.Quantity-body.Data.Reserved, 0), nil
}

// Ping reports whether the inventory service answers its liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.Get(ctx, c.baseURL+"/health/live")
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inventory liveness returned %d", resp.StatusCode)
	}
	return nil
}
