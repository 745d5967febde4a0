package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velmora-shop/vendor-relay/internal/payment"
)

// PaymentHandler serves the storefront's payment creation.
type PaymentHandler struct {
	Payments *payment.Service
}

// NewPaymentHandler wires the handler.
func NewPaymentHandler(svc *payment.Service) *PaymentHandler {
	return &PaymentHandler{Payments: svc}
}

// CreatePayment validates and forwards a payment-creation request, returning
// the widget's confirmation token.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var in payment.CreatePaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	result, err := h.Payments.Create(c.Request.Context(), requestOrigin(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// requestOrigin prefers the browser's Origin header, falling back to the
// request host, to default the payment return URL.
func requestOrigin(c *gin.Context) string {
	if origin := c.GetHeader("Origin"); origin != "" {
		return origin
	}
	if c.Request.Host == "" {
		return ""
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
