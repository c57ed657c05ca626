package prerender

import (
	"net/http"
	"os"

	"go.uber.org/zap"
)

// DefaultServiceURL is used when Config.Prerender is empty.
const DefaultServiceURL = "http://service.prerender.io/"

// TokenEnv names the environment variable consulted when no token is configured.
const TokenEnv = "PRERENDER_TOKEN"

// Config configures a Middleware. The zero value is usable.
type Config struct {
	// Prerender is the rendering service base URL. The render URL is appended verbatim.
	Prerender string `yaml:"prerender" json:"prerender"`
	// PrerenderToken is sent as X-Prerender-Token.
	PrerenderToken string `yaml:"prerenderToken" json:"prerenderToken"`
	// Protocol and Host replace the values detected from the request.
	Protocol string `yaml:"protocol" json:"protocol"`
	Host     string `yaml:"host" json:"host"`
	// TrustProxy honours X-Forwarded-Proto and X-Forwarded-Host.
	TrustProxy bool `yaml:"trustProxy" json:"trustProxy"`
}

// ErrorHandler writes a response for a request whose snapshot could not be fetched.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option customises a Middleware.
type Option func(*Middleware)

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(m *Middleware) {
		if f != nil {
			m.fetcher = f
		}
	}
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithErrorHandler sets the handler used by Handler when Serve fails.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) {
		if h != nil {
			m.onError = h
		}
	}
}

// resolve fills defaults and the token fallback. It runs once, in New.
func (c Config) resolve() Config {
	if c.Prerender == "" {
		c.Prerender = DefaultServiceURL
	}
	if c.PrerenderToken == "" {
		c.PrerenderToken = os.Getenv(TokenEnv)
	}
	return c
}
