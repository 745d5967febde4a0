package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration for both relay daemons.
type Config struct {
	Environment string
	ServiceName string

	ShippingHTTPPort string
	PaymentHTTPPort  string

	CDEKAccount        string
	CDEKSecurePassword string
	CDEKAPIURL         string

	YooKassaShopID    string
	YooKassaSecretKey string
	YooKassaAPIURL    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TokenSafetyMargin time.Duration
	CityCacheTTL      time.Duration
	VendorTimeout     time.Duration

	RateLimitRPM int

	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
// Vendor credentials are allowed to be absent: the relays start anyway and
// fail the affected requests with an explicit not-configured error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		ServiceName: os.Getenv("SERVICE_NAME"),

		ShippingHTTPPort: getEnv("SHIPPING_HTTP_PORT", "3001"),
		PaymentHTTPPort:  getEnv("PAYMENT_HTTP_PORT", "3002"),

		CDEKAccount:        strings.TrimSpace(os.Getenv("CDEK_ACCOUNT")),
		CDEKSecurePassword: strings.TrimSpace(os.Getenv("CDEK_SECURE_PASSWORD")),
		CDEKAPIURL:         getEnv("CDEK_API_URL", "https://api.cdek.ru/v2"),

		YooKassaShopID:    strings.TrimSpace(os.Getenv("YOOKASSA_SHOP_ID")),
		YooKassaSecretKey: strings.TrimSpace(os.Getenv("YOOKASSA_SECRET_KEY")),
		YooKassaAPIURL:    getEnv("YOOKASSA_API_URL", "https://api.yookassa.ru/v3"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		TokenSafetyMargin: getDuration("TOKEN_SAFETY_MARGIN", 5*time.Minute),
		CityCacheTTL:      getDuration("CITY_CACHE_TTL", 10*time.Minute),
		VendorTimeout:     getDuration("VENDOR_TIMEOUT", 10*time.Second),

		RateLimitRPM: getInt("RATE_LIMIT_RPM", 0),

		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.TokenSafetyMargin < 0 {
		cfg.TokenSafetyMargin = 0
	}

	return cfg, nil
}

// ShippingConfigured reports whether the shipping vendor credentials are set.
func (c Config) ShippingConfigured() bool {
	return c.CDEKAccount != "" && c.CDEKSecurePassword != ""
}

// PaymentConfigured reports whether the payment vendor credentials are set.
func (c Config) PaymentConfigured() bool {
	return c.YooKassaShopID != "" && c.YooKassaSecretKey != ""
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
