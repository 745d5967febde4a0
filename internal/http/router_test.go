package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/velmora-shop/vendor-relay/internal/adapter/cache"
	"github.com/velmora-shop/vendor-relay/internal/adapter/cdek"
	"github.com/velmora-shop/vendor-relay/internal/adapter/yookassa"
	"github.com/velmora-shop/vendor-relay/internal/config"
	httptransport "github.com/velmora-shop/vendor-relay/internal/http"
	"github.com/velmora-shop/vendor-relay/internal/http/handler"
	"github.com/velmora-shop/vendor-relay/internal/payment"
	"github.com/velmora-shop/vendor-relay/internal/relay"
	"github.com/velmora-shop/vendor-relay/internal/shipping"
)

type fakeShippingVendor struct {
	citiesBody []byte
	dpBody     []byte
	lastDP     url.Values
}

var _ cdek.Client = (*fakeShippingVendor)(nil)

func (v *fakeShippingVendor) Authenticate(context.Context) (cdek.Auth, error) {
	return cdek.Auth{AccessToken: "tok", ExpiresIn: 3600}, nil
}

func (v *fakeShippingVendor) SearchCities(context.Context, string, url.Values) ([]byte, error) {
	return v.citiesBody, nil
}

func (v *fakeShippingVendor) SearchDeliveryPoints(_ context.Context, _ string, params url.Values) ([]byte, error) {
	v.lastDP = params
	return v.dpBody, nil
}

type fakePaymentGateway struct {
	err      error
	response *yookassa.Payment
}

var _ yookassa.Client = (*fakePaymentGateway)(nil)

func (g *fakePaymentGateway) CreatePayment(context.Context, string, yookassa.PaymentRequest) (*yookassa.Payment, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.response, nil
}

func testConfig() config.Config {
	return config.Config{
		ServiceName:        "relay-test",
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Authorization", "Content-Type"},
	}
}

func newShippingRouter(vendor *fakeShippingVendor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	source := shipping.NewTokenSource(vendor, cache.NewMemoryTokenStore(), 5*time.Minute, zap.NewNop())
	svc := shipping.NewService(vendor, source, 0, zap.NewNop())
	return httptransport.NewShippingRouter(testConfig(), zap.NewNop(), handler.NewShippingHandler(svc), nil)
}

func newPaymentRouter(gateway *fakePaymentGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	node, _ := snowflake.NewNode(1)
	svc := payment.NewService(gateway, node, zap.NewNop())
	return httptransport.NewPaymentRouter(testConfig(), zap.NewNop(), handler.NewPaymentHandler(svc), nil)
}

func TestShippingRelayCities(t *testing.T) {
	router := newShippingRouter(&fakeShippingVendor{citiesBody: []byte(`{"items":[{"code":44},{"code":270}]}`)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cdek/service?method=location/cities&country_codes=RU", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var cities []json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cities))
	require.Len(t, cities, 2)
}

func TestShippingRelayOfficesForwardsOnlyPresentFilters(t *testing.T) {
	vendor := &fakeShippingVendor{dpBody: []byte(`[{"code":"MSK1","location":{"address":"Arbat St, 1"}}]`)}
	router := newShippingRouter(vendor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cdek/service?action=offices&city_code=44&radius=", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, url.Values{"city_code": {"44"}}, vendor.lastDP)

	var offices []shipping.Office
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &offices))
	require.Len(t, offices, 1)
	require.Equal(t, "Arbat St, 1", offices[0].Address)
}

func TestShippingRelayInvalidMethodOrAction(t *testing.T) {
	router := newShippingRouter(&fakeShippingVendor{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cdek/service?method=foo&action=bar", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Invalid method or action"}`, w.Body.String())
}

func TestShippingRelayNotFoundRoute(t *testing.T) {
	router := newShippingRouter(&fakeShippingVendor{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"Not Found: GET /nope"}`, w.Body.String())
}

func TestHealthzWithoutCredentials(t *testing.T) {
	router := newShippingRouter(&fakeShippingVendor{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	router := newShippingRouter(&fakeShippingVendor{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/cdek/service", nil)
	req.Header.Set("Origin", "https://shop.example")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreatePaymentEndpoint(t *testing.T) {
	response := &yookassa.Payment{
		ID:     "pay-1",
		Status: "pending",
		Amount: yookassa.Amount{Value: "100.50", Currency: "RUB"},
	}
	response.Confirmation.ConfirmationToken = "ct-1"
	router := newPaymentRouter(&fakePaymentGateway{response: response})

	body := `{"amount": 100.5, "description": "Order #42"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create-payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://shop.example")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result payment.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.True(t, result.Success)
	require.Equal(t, "pay-1", result.PaymentID)
	require.Equal(t, "ct-1", result.ConfirmationToken)
	require.Equal(t, "pending", result.Status)
}

func TestCreatePaymentEndpointRejectsMissingFields(t *testing.T) {
	router := newPaymentRouter(&fakePaymentGateway{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create-payment", strings.NewReader(`{"description":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Amount is required"}`, w.Body.String())
}

func TestCreatePaymentEndpointNotConfigured(t *testing.T) {
	router := newPaymentRouter(&fakePaymentGateway{err: relay.NewNotConfigured("Payment credentials not configured")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create-payment", strings.NewReader(`{"amount":10,"description":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Payment credentials not configured"}`, w.Body.String())
}
