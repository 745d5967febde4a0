// Package shipping implements the token-cached pass-through to the shipping
// vendor: resolve a bearer token once, reuse it across requests, and adapt
// the vendor's response shapes for the storefront.
package shipping

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/viccon/sturdyc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/velmora-shop/vendor-relay/internal/adapter/cdek"
)

// OfficeFilterKeys are the only query parameters forwarded to the vendor's
// delivery-point endpoint. Absent ones never leak into the query string.
var OfficeFilterKeys = []string{
	"city_code", "city_uuid", "latitude", "longitude",
	"radius", "size", "type", "is_handout",
}

const (
	cityCacheCapacity = 10_000
	cityCacheShards   = 10
	cityCacheEviction = 10
)

// Service answers storefront shipping lookups through the vendor API.
type Service struct {
	client cdek.Client
	tokens *TokenSource
	cities *sturdyc.Client[[]json.RawMessage]
	logger *zap.Logger
	tracer trace.Tracer
}

// NewService wires dependencies. A non-positive cityCacheTTL disables the
// city read cache.
func NewService(client cdek.Client, tokens *TokenSource, cityCacheTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		client: client,
		tokens: tokens,
		logger: logger,
		tracer: otel.Tracer("github.com/velmora-shop/vendor-relay/internal/shipping"),
	}
	if cityCacheTTL > 0 {
		s.cities = sturdyc.New[[]json.RawMessage](cityCacheCapacity, cityCacheShards, cityCacheTTL, cityCacheEviction)
	}
	return s
}

// LookupCities forwards the given filters verbatim to the vendor's
// city-search endpoint. City records pass through unmodified; responses are
// cached per canonical query for the configured TTL, with stampede
// protection, so repeated storefront searches cost one vendor call.
func (s *Service) LookupCities(ctx context.Context, params url.Values) ([]json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "shipping.lookup_cities")
	defer span.End()

	fetch := func(ctx context.Context) ([]json.RawMessage, error) {
		token, err := s.tokens.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		body, err := s.client.SearchCities(ctx, token, params)
		if err != nil {
			return nil, err
		}
		return NormalizeList(body)
	}

	if s.cities == nil {
		return fetch(ctx)
	}
	return s.cities.GetOrFetch(ctx, params.Encode(), fetch)
}

// LookupPickupPoints forwards the present filters to the vendor's
// delivery-point endpoint and maps each record to the simplified Office
// shape.
func (s *Service) LookupPickupPoints(ctx context.Context, filters url.Values) ([]Office, error) {
	ctx, span := s.tracer.Start(ctx, "shipping.lookup_pickup_points")
	defer span.End()

	token, err := s.tokens.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	body, err := s.client.SearchDeliveryPoints(ctx, token, filters)
	if err != nil {
		return nil, err
	}
	records, err := NormalizeList(body)
	if err != nil {
		return nil, err
	}
	return MapOffices(records)
}
