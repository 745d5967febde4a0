package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/velmora-shop/vendor-relay/internal/adapter/yookassa"
	"github.com/velmora-shop/vendor-relay/internal/config"
	httptransport "github.com/velmora-shop/vendor-relay/internal/http"
	"github.com/velmora-shop/vendor-relay/internal/http/handler"
	"github.com/velmora-shop/vendor-relay/internal/middleware"
	"github.com/velmora-shop/vendor-relay/internal/payment"
	"github.com/velmora-shop/vendor-relay/internal/server"
	"github.com/velmora-shop/vendor-relay/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newVendorClient,
			newPaymentService,
			newRateLimiter,
			handler.NewPaymentHandler,
			newRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, warnIfUnconfigured, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "payment-relay"
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func newVendorClient(cfg config.Config) yookassa.Client {
	return yookassa.NewHTTPClient(
		cfg.YooKassaAPIURL,
		cfg.YooKassaShopID,
		cfg.YooKassaSecretKey,
		&http.Client{Timeout: cfg.VendorTimeout},
	)
}

func newPaymentService(client yookassa.Client, node *snowflake.Node, logger *zap.Logger) *payment.Service {
	return payment.NewService(client, node, logger)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newRouter(cfg config.Config, logger *zap.Logger, paymentHandler *handler.PaymentHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	return httptransport.NewPaymentRouter(cfg, logger, paymentHandler, rateLimiter)
}

func warnIfUnconfigured(cfg config.Config, logger *zap.Logger) {
	if !cfg.PaymentConfigured() {
		logger.Warn("payment credentials not configured; payment creation will fail with 500")
	}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.PaymentHTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
