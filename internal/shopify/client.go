package shopify

// Package shopify provides the Admin GraphQL API client plus request
// authentication helpers for app-proxy, webhook, and session-token traffic.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/giftkitapp/giftkit/internal/observability"
)

const defaultRequestTimeout = 15 * time.Second

// Client talks to one shop's Admin GraphQL endpoint.
type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
	logger      *slog.Logger
}

// Factory builds per-shop clients that share one instrumented transport.
type Factory struct {
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewFactory(apiVersion string, logger *slog.Logger) *Factory {
	return &Factory{
		apiVersion: apiVersion,
		httpClient: observability.NewHTTPClient(defaultRequestTimeout),
		logger:     logger,
	}
}

func (f *Factory) ForShop(shopDomain, accessToken string) *Client {
	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  f.apiVersion,
		httpClient:  f.httpClient,
		logger:      f.logger,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Query executes a GraphQL operation and decodes the data payload into out.
// Transport failures and top-level GraphQL errors are returned as errors;
// mutation-level userErrors are left for the caller to inspect.
func (c *Client) Query(ctx context.Context, operation string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: operation, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode GraphQL request: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.shopDomain, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("admin API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read admin API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("admin API returned non-2xx status", "status", resp.StatusCode, "shop", c.shopDomain)
		return fmt.Errorf("admin API returned status %d", resp.StatusCode)
	}

	var decoded graphQLResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to decode admin API response: %w", err)
	}

	if len(decoded.Errors) > 0 {
		messages := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("admin API errors: %s", strings.Join(messages, "; "))
	}

	if out != nil && len(decoded.Data) > 0 {
		if err := json.Unmarshal(decoded.Data, out); err != nil {
			return fmt.Errorf("failed to decode GraphQL data: %w", err)
		}
	}

	return nil
}

// ShopDomain returns the domain this client is bound to.
func (c *Client) ShopDomain() string {
	return c.shopDomain
}
