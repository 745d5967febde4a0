package yookassa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velmora-shop/vendor-relay/internal/relay"
)

func paymentRequest() PaymentRequest {
	return PaymentRequest{
		Amount:       Amount{Value: "100.50", Currency: "RUB"},
		Capture:      true,
		Confirmation: Confirmation{Type: "embedded", ReturnURL: "https://shop/order/success"},
		Description:  "Order #42",
	}
}

func TestCreatePaymentSignsAndForwards(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "shop-1", user)
		require.Equal(t, "sk-secret", pass)
		require.Equal(t, "1748779200000-42", r.Header.Get("Idempotence-Key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "pay-1",
			"status": "pending",
			"amount": {"value": "100.50", "currency": "RUB"},
			"confirmation": {"type": "embedded", "confirmation_token": "ct-1"}
		}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "shop-1", "sk-secret", srv.Client())
	payment, err := client.CreatePayment(context.Background(), "1748779200000-42", paymentRequest())
	require.NoError(t, err)
	require.Equal(t, "pay-1", payment.ID)
	require.Equal(t, "pending", payment.Status)
	require.Equal(t, "ct-1", payment.Confirmation.ConfirmationToken)
	require.NotEmpty(t, payment.Raw)

	amount, ok := gotBody["amount"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "100.50", amount["value"])
	require.Equal(t, true, gotBody["capture"])
}

func TestCreatePaymentMissingCredentials(t *testing.T) {
	client := NewHTTPClient("http://unused", "", "", nil)
	_, err := client.CreatePayment(context.Background(), "k", paymentRequest())
	require.Error(t, err)
	require.Equal(t, "not_configured", relay.AsError(err).Code)
}

func TestCreatePaymentVendorErrorDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","description":"Invalid shop configuration"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "shop-1", "sk", srv.Client())
	_, err := client.CreatePayment(context.Background(), "k", paymentRequest())
	require.Error(t, err)
	relayErr := relay.AsError(err)
	require.Equal(t, http.StatusBadRequest, relayErr.Status)
	require.Equal(t, "Invalid shop configuration", relayErr.Message)
}

func TestCreatePaymentVendorErrorWithoutDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "shop-1", "sk", srv.Client())
	_, err := client.CreatePayment(context.Background(), "k", paymentRequest())
	require.Error(t, err)
	require.Equal(t, "Payment creation failed", relay.AsError(err).Message)
}
