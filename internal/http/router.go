// Package http wires gin routes and middleware for the two relay daemons.
package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/velmora-shop/vendor-relay/internal/config"
	"github.com/velmora-shop/vendor-relay/internal/http/handler"
	"github.com/velmora-shop/vendor-relay/internal/middleware"
)

// NewShippingRouter builds the shipping relay's route table.
func NewShippingRouter(cfg config.Config, logger *zap.Logger, shippingHandler *handler.ShippingHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := newBaseRouter(cfg, logger, rateLimiter)
	r.GET("/api/cdek/service", shippingHandler.Relay)
	return r
}

// NewPaymentRouter builds the payment relay's route table.
func NewPaymentRouter(cfg config.Config, logger *zap.Logger, paymentHandler *handler.PaymentHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := newBaseRouter(cfg, logger, rateLimiter)
	r.POST("/create-payment", paymentHandler.CreatePayment)
	return r
}

func newBaseRouter(cfg config.Config, logger *zap.Logger, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", handler.Healthz)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("Not Found: %s %s", c.Request.Method, c.Request.URL.Path),
		})
	})

	return r
}
