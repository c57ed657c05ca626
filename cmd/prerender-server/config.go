package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arun0009/prerender-server/prerender"
)

// Config holds server configuration
type Config struct {
	Port           string
	EnableTLS      bool
	CertFile       string
	KeyFile        string
	EnableCORS     bool
	LogRequests    bool
	LogHeaders     bool
	LogLevel       string
	Hostname       string
	OriginURL      string
	StaticDir      string
	FetchTimeout   time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	ConfigFile     string
	Prerender      prerender.Config
}

const defaultFetchTimeout = 60 * time.Second

// loadConfigFromEnv builds a Config from environment variables.
func loadConfigFromEnv() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		EnableTLS:      getEnv("ENABLE_TLS", "false") == "true",
		CertFile:       getEnv("CERT_FILE", "server.crt"),
		KeyFile:        getEnv("KEY_FILE", "server.key"),
		EnableCORS:     getEnv("ENABLE_CORS", "true") == "true",
		LogRequests:    getEnv("LOG_REQUESTS", "true") == "true",
		LogHeaders:     getEnv("LOG_HEADERS", "false") == "true",
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		OriginURL:      getEnv("ORIGIN_URL", ""),
		StaticDir:      getEnv("STATIC_DIR", "./public"),
		FetchTimeout:   parseDuration(getEnv("PRERENDER_FETCH_TIMEOUT", "60s"), defaultFetchTimeout),
		RateLimitRPS:   parseFloat64(getEnv("RATE_LIMIT_RPS", "0")),
		RateLimitBurst: int(parseInt64(getEnv("RATE_LIMIT_BURST", "0"))),
		ConfigFile:     getEnv("PRERENDER_CONFIG_FILE", "prerender.yaml"),
		Prerender: prerender.Config{
			Prerender:  getEnv("PRERENDER_SERVICE_URL", ""),
			Protocol:   getEnv("PRERENDER_PROTOCOL", ""),
			Host:       getEnv("PRERENDER_HOST", ""),
			TrustProxy: getEnv("TRUST_PROXY", "false") == "true",
		},
	}
}

// loadPrerenderFile reads the YAML prerender settings at path. A missing file
// is not an error and yields a zero Config.
func loadPrerenderFile(path string) (prerender.Config, error) {
	var cfg prerender.Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// mergePrerender layers env values over file values. Empty env values keep the file's.
func mergePrerender(file, env prerender.Config) prerender.Config {
	out := file
	if env.Prerender != "" {
		out.Prerender = env.Prerender
	}
	if env.PrerenderToken != "" {
		out.PrerenderToken = env.PrerenderToken
	}
	if env.Protocol != "" {
		out.Protocol = env.Protocol
	}
	if env.Host != "" {
		out.Host = env.Host
	}
	if env.TrustProxy {
		out.TrustProxy = true
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64(s string) int64 {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return 0
}

func parseFloat64(s string) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return 0
}

// parseDuration falls back to def on bad input so a typo never leaves the
// rendering fetch unbounded.
func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
