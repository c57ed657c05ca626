package prerender

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// FetchRequest describes the outbound call to the rendering service.
type FetchRequest struct {
	URL              string
	Header           http.Header
	AcceptCompressed bool
}

// Fetcher retrieves a rendered document. Implementations own any timeout.
type Fetcher interface {
	Fetch(ctx context.Context, req *FetchRequest) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req *FetchRequest) ([]byte, error)

// Fetch calls f(ctx, req).
func (f FetcherFunc) Fetch(ctx context.Context, req *FetchRequest) ([]byte, error) {
	return f(ctx, req)
}

// StatusError is returned when the rendering service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("prerender service returned %d for %s", e.StatusCode, e.URL)
}

// HTTPFetcher fetches rendered pages over HTTP. It never retries.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns an HTTPFetcher using client, or a pooled client with a
// 60 second timeout when client is nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = newDefaultClient(60 * time.Second)
	}
	return &HTTPFetcher{client: client}
}

// NewHTTPFetcherWithTimeout returns an HTTPFetcher backed by the default pooled
// transport and the given overall request timeout.
func NewHTTPFetcherWithTimeout(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: newDefaultClient(timeout)}
}

func newDefaultClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Fetch issues a GET for req.URL and returns the decoded body.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *FetchRequest) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating prerender request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	// Setting Accept-Encoding ourselves turns off the transport's transparent
	// decompression, so gzip bodies are decoded below.
	if req.AcceptCompressed {
		httpReq.Header.Set("Accept-Encoding", "gzip")
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL}
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding gzip from %s: %w", req.URL, err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading prerender response: %w", err)
	}
	return data, nil
}
