package main

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

// newOriginHandler returns the application the gateway fronts: a reverse proxy
// to ORIGIN_URL, or a static file server over STATIC_DIR when no origin is set.
func newOriginHandler(cfg Config) (http.Handler, error) {
	if cfg.OriginURL == "" {
		return http.FileServer(http.Dir(cfg.StaticDir)), nil
	}
	target, err := url.Parse(cfg.OriginURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ORIGIN_URL %q: %w", cfg.OriginURL, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid ORIGIN_URL %q: scheme and host are required", cfg.OriginURL)
	}

	rp := httputil.NewSingleHostReverseProxy(target)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("origin request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}
	return rp, nil
}
