package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/velmora-shop/vendor-relay/internal/adapter/cache"
	"github.com/velmora-shop/vendor-relay/internal/adapter/cdek"
	"github.com/velmora-shop/vendor-relay/internal/config"
	httptransport "github.com/velmora-shop/vendor-relay/internal/http"
	"github.com/velmora-shop/vendor-relay/internal/http/handler"
	"github.com/velmora-shop/vendor-relay/internal/middleware"
	"github.com/velmora-shop/vendor-relay/internal/server"
	"github.com/velmora-shop/vendor-relay/internal/shipping"
	"github.com/velmora-shop/vendor-relay/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newVendorClient,
			newTokenStore,
			newTokenSource,
			newShippingService,
			newRateLimiter,
			handler.NewShippingHandler,
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
		cfg.ServiceName = "shipping-relay"
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

func newVendorClient(cfg config.Config) cdek.Client {
	return cdek.NewHTTPClient(
		cfg.CDEKAPIURL,
		cfg.CDEKAccount,
		cfg.CDEKSecurePassword,
		&http.Client{Timeout: cfg.VendorTimeout},
	)
}

// newTokenStore picks the Redis-backed store when REDIS_ADDR is set, so
// multiple replicas share one vendor token; otherwise the token lives in
// process memory.
func newTokenStore(lc fx.Lifecycle, cfg config.Config) (shipping.TokenStore, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryTokenStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return cache.NewRedisTokenStore(client), nil
}

func newTokenSource(client cdek.Client, store shipping.TokenStore, cfg config.Config, logger *zap.Logger) *shipping.TokenSource {
	return shipping.NewTokenSource(client, store, cfg.TokenSafetyMargin, logger)
}

func newShippingService(client cdek.Client, tokens *shipping.TokenSource, cfg config.Config, logger *zap.Logger) *shipping.Service {
	return shipping.NewService(client, tokens, cfg.CityCacheTTL, logger)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newRouter(cfg config.Config, logger *zap.Logger, shippingHandler *handler.ShippingHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	return httptransport.NewShippingRouter(cfg, logger, shippingHandler, rateLimiter)
}

func warnIfUnconfigured(cfg config.Config, logger *zap.Logger) {
	if !cfg.ShippingConfigured() {
		logger.Warn("shipping credentials not configured; authenticated lookups will fail with 500")
	}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.ShippingHTTPPort
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
