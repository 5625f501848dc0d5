package config

import (
	"os"
	"strconv"
)

type Config struct {
	ServiceName string
	Env         string

	HTTPAddr    string
	DatabaseURL string
	RedisAddr   string
	StockAPIURL string
	OTLPAddr    string

	// ResolverThreshold is the minimum similarity score for fuzzy product
	// resolution.
	ResolverThreshold float64

	// StockFailOpen skips the availability gate when the inventory boundary
	// is unreachable. The default is fail-closed: unknown availability is
	// treated as zero so an add is blocked rather than oversold.
	StockFailOpen bool

	// RequestTimeoutSeconds bounds the whole add path, which chains up to
	// three external round trips.
	RequestTimeoutSeconds int
}

func Load() Config {
	return Config{
		ServiceName: getEnv("SERVICE_NAME", "cart-service"),
		Env:         getEnv("ENV", "dev"),

		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/cartdb?sslmode=disable"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		StockAPIURL: getEnv("STOCK_API_URL", "http://localhost:8011"),
		OTLPAddr:    getEnv("OTEL_HOST", ""),

		ResolverThreshold:     getEnvFloat("RESOLVER_THRESHOLD", 0.3),
		StockFailOpen:         getEnvBool("STOCK_FAIL_OPEN", false),
		RequestTimeoutSeconds: getEnvInt("REQUEST_TIMEOUT_SECONDS", 30),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
