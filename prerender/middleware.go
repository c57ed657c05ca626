package prerender

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	headerPrerender      = "X-Prerender"
	headerPrerenderToken = "X-Prerender-Token"
	headerBufferbot      = "X-Bufferbot"
)

// Middleware serves pre-rendered snapshots to crawlers. It is safe for
// concurrent use; nothing is mutated after New.
type Middleware struct {
	cfg     Config
	fetcher Fetcher
	logger  *zap.Logger
	onError ErrorHandler
}

// New builds a Middleware. The token fallback to PRERENDER_TOKEN is read here
// and never again.
func New(cfg Config, opts ...Option) *Middleware {
	m := &Middleware{
		cfg:     cfg.resolve(),
		logger:  zap.NewNop(),
		onError: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fetcher == nil {
		m.fetcher = NewHTTPFetcher(nil)
	}
	return m
}

// Config returns the effective configuration.
func (m *Middleware) Config() Config {
	return m.cfg
}

// Handler wraps next. Fetch failures are passed to the configured ErrorHandler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.Serve(w, r, next); err != nil {
			m.onError(w, r, err)
		}
	})
}

// Classify reports whether r should get a snapshot.
func (m *Middleware) Classify(r *http.Request) bool {
	return ShouldPreRender(Input{
		URL:         requestURL(r),
		Method:      r.Method,
		UserAgent:   r.Header.Get("User-Agent"),
		BufferAgent: r.Header.Get(headerBufferbot) != "",
	})
}

// Serve handles one request. When the request is classified for pre-rendering
// the snapshot is fetched first; if that fails the error is returned and next
// is not run. Otherwise next always runs, and its body is replaced by the
// snapshot in the pre-render case.
func (m *Middleware) Serve(w http.ResponseWriter, r *http.Request, next http.Handler) error {
	protocol := m.cfg.Protocol
	if protocol == "" {
		protocol = m.detectProtocol(r)
	}
	host := m.cfg.Host
	if host == "" {
		host = m.detectHost(r)
	}

	header := http.Header{}
	header.Set("User-Agent", r.UserAgent())
	if m.cfg.PrerenderToken != "" {
		header.Set(headerPrerenderToken, m.cfg.PrerenderToken)
	}

	if !m.Classify(r) {
		m.logger.Debug("passing through", zap.String("method", r.Method), zap.String("url", requestURL(r)))
		pw := &passWriter{ResponseWriter: w}
		next.ServeHTTP(pw, r)
		pw.finish()
		return nil
	}

	renderURL := protocol + "://" + host + requestURL(r)
	preRenderURL := m.cfg.Prerender + renderURL
	m.logger.Debug("pre-rendering", zap.String("render_url", renderURL), zap.String("prerender_url", preRenderURL))

	body, err := m.fetcher.Fetch(r.Context(), &FetchRequest{
		URL:              preRenderURL,
		Header:           header,
		AcceptCompressed: true,
	})
	if err != nil {
		m.logger.Warn("prerender fetch failed", zap.String("prerender_url", preRenderURL), zap.Error(err))
		return err
	}

	bw := newBufferedWriter(w.Header())
	next.ServeHTTP(bw, r)

	h := w.Header()
	h.Del("Content-Length")
	h.Del("Content-Encoding")
	if h.Get("Content-Type") == "" {
		if strings.HasPrefix(strings.TrimLeft(string(body), " \t\r\n"), "<") {
			h.Set("Content-Type", "text/html; charset=utf-8")
		} else {
			h.Set("Content-Type", "text/plain; charset=utf-8")
		}
	}
	h.Set(headerPrerender, "true")
	w.WriteHeader(bw.status())
	// The status line is already out; a failed body write has no one left to report to.
	w.Write(body)
	return nil
}

func (m *Middleware) detectProtocol(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if m.cfg.TrustProxy {
		if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto != "" {
			return proto
		}
	}
	return "http"
}

func (m *Middleware) detectHost(r *http.Request) string {
	if m.cfg.TrustProxy {
		if host := firstHeaderValue(r, "X-Forwarded-Host"); host != "" {
			return host
		}
	}
	return r.Host
}

func firstHeaderValue(r *http.Request, name string) string {
	v, _, _ := strings.Cut(r.Header.Get(name), ",")
	return strings.TrimSpace(v)
}

// requestURL is the literal request target as received.
func requestURL(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}

// DefaultErrorHandler answers with the rendering service's status when it sent
// a 4xx/5xx, and 500 for everything else.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode <= 599 {
		status = se.StatusCode
	}
	http.Error(w, http.StatusText(status), status)
}
