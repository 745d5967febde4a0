// Package handler exposes the relay services over gin.
package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/velmora-shop/vendor-relay/internal/relay"
	"github.com/velmora-shop/vendor-relay/internal/shipping"
)

// ShippingHandler serves the storefront's shipping lookups.
type ShippingHandler struct {
	Shipping *shipping.Service
}

// NewShippingHandler wires the handler.
func NewShippingHandler(svc *shipping.Service) *ShippingHandler {
	return &ShippingHandler{Shipping: svc}
}

// Relay dispatches on the method/action query parameters. Anything other
// than the two known lookups is a client-contract violation.
func (h *ShippingHandler) Relay(c *gin.Context) {
	query := c.Request.URL.Query()

	switch {
	case query.Get("method") == "location/cities":
		params := vendorParams(query)
		cities, err := h.Shipping.LookupCities(c.Request.Context(), params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cities)

	case query.Get("action") == "offices":
		filters := url.Values{}
		for _, key := range shipping.OfficeFilterKeys {
			if v := query.Get(key); v != "" {
				filters.Set(key, v)
			}
		}
		offices, err := h.Shipping.LookupPickupPoints(c.Request.Context(), filters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, offices)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid method or action"})
	}
}

// vendorParams copies every query parameter except the routing ones, so the
// vendor receives the client's filters verbatim.
func vendorParams(query url.Values) url.Values {
	params := url.Values{}
	for key, values := range query {
		if key == "method" || key == "action" {
			continue
		}
		for _, v := range values {
			params.Add(key, v)
		}
	}
	return params
}

func respondError(c *gin.Context, err error) {
	relayErr := relay.AsError(err)
	body := gin.H{"error": relayErr.Message}
	if relayErr.Details != "" {
		body["details"] = relayErr.Details
	}
	c.JSON(relayErr.Status, body)
}
