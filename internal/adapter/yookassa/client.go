// Package yookassa encapsulates outbound HTTP calls to the YooKassa payment API.
package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/velmora-shop/vendor-relay/internal/relay"
)

// Client is the outbound surface the payment service depends on.
type Client interface {
	CreatePayment(ctx context.Context, idempotencyKey string, req PaymentRequest) (*Payment, error)
}

// Amount is a monetary value in the vendor's minor-unit string convention.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Confirmation selects the embedded-widget confirmation flow.
type Confirmation struct {
	Type      string `json:"type"`
	ReturnURL string `json:"return_url,omitempty"`
}

// PaymentRequest is the vendor payment-creation payload.
type PaymentRequest struct {
	Amount       Amount            `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation Confirmation      `json:"confirmation"`
	Description  string            `json:"description"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Payment is the subset of the vendor response the relay consumes.
type Payment struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Amount       Amount `json:"amount"`
	Confirmation struct {
		Type              string `json:"type"`
		ConfirmationToken string `json:"confirmation_token"`
	} `json:"confirmation"`

	// Raw keeps the full vendor body for contract-violation diagnostics.
	Raw json.RawMessage `json:"-"`
}

// HTTPClient is the default HTTP implementation signing requests with the
// shop's Basic credentials.
type HTTPClient struct {
	baseURL    string
	shopID     string
	secretKey  string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs the default Client.
func NewHTTPClient(baseURL, shopID, secretKey string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		shopID:     shopID,
		secretKey:  secretKey,
		httpClient: client,
	}
}

// CreatePayment forwards the payment-creation request with Basic auth and the
// provided idempotency key.
func (c *HTTPClient) CreatePayment(ctx context.Context, idempotencyKey string, payReq PaymentRequest) (*Payment, error) {
	if c.shopID == "" || c.secretKey == "" {
		return nil, relay.NewNotConfigured("Payment credentials not configured")
	}

	payload, err := json.Marshal(payReq)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read payment response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, relay.NewUpstream(resp.StatusCode, vendorErrorMessage(body), string(body))
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	payment.Raw = body
	return &payment, nil
}

// vendorErrorMessage pulls the vendor's description field out of an error
// body, falling back to a generic message.
func vendorErrorMessage(body []byte) string {
	var parsed struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Description) != "" {
		return parsed.Description
	}
	return "Payment creation failed"
}
