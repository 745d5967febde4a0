// Package cdek encapsulates outbound HTTP calls to the CDEK shipping API.
package cdek

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/velmora-shop/vendor-relay/internal/relay"
)

// Client is the outbound surface the shipping service depends on.
type Client interface {
	Authenticate(ctx context.Context) (Auth, error)
	SearchCities(ctx context.Context, token string, params url.Values) ([]byte, error)
	SearchDeliveryPoints(ctx context.Context, token string, params url.Values) ([]byte, error)
}

// Auth is the result of an OAuth2 client-credentials exchange.
type Auth struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HTTPClient is the default HTTP implementation.
type HTTPClient struct {
	baseURL        string
	account        string
	securePassword string
	httpClient     *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs the default Client. A nil http.Client gets a 10s
// timeout so a hanging vendor call cannot pin a handler forever.
func NewHTTPClient(baseURL, account, securePassword string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		account:        account,
		securePassword: securePassword,
		httpClient:     client,
	}
}

// Authenticate performs the client-credentials token exchange.
func (c *HTTPClient) Authenticate(ctx context.Context) (Auth, error) {
	if c.account == "" || c.securePassword == "" {
		return Auth{}, relay.NewNotConfigured("Shipping credentials not configured")
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", c.account)
	data.Set("client_secret", c.securePassword)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(data.Encode()))
	if err != nil {
		return Auth{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Auth{}, fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Auth{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Auth{}, relay.NewUpstream(resp.StatusCode, "Shipping authentication failed", string(body))
	}

	var auth Auth
	if err := json.Unmarshal(body, &auth); err != nil {
		return Auth{}, fmt.Errorf("decode token response: %w", err)
	}
	if auth.AccessToken == "" {
		return Auth{}, relay.NewVendorContract("Shipping token response missing access_token")
	}
	return auth, nil
}

// SearchCities forwards the query to the city-search endpoint and returns the
// raw response body.
func (c *HTTPClient) SearchCities(ctx context.Context, token string, params url.Values) ([]byte, error) {
	return c.get(ctx, "/location/cities", token, params, "City lookup failed")
}

// SearchDeliveryPoints forwards the filters to the delivery-point endpoint
// and returns the raw response body.
func (c *HTTPClient) SearchDeliveryPoints(ctx context.Context, token string, params url.Values) ([]byte, error) {
	return c.get(ctx, "/deliverypoint", token, params, "Pickup point lookup failed")
}

func (c *HTTPClient) get(ctx context.Context, path, token string, params url.Values, failMessage string) ([]byte, error) {
	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shipping request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read shipping response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, relay.NewUpstream(resp.StatusCode, failMessage, string(body))
	}
	return body, nil
}
