package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arun0009/prerender-server/prerender"
)

func TestPrerenderRouteServesSnapshot(t *testing.T) {
	setupTest()
	var seen string
	var token string
	render := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RequestURI
		token = r.Header.Get("X-Prerender-Token")
		w.Write([]byte("<html>OK</html>"))
	}))
	defer render.Close()
	usePrerenderService(render.URL+"/", func(c *prerender.Config) {
		c.Protocol = "https"
		c.Host = "example.com"
		c.PrerenderToken = "tok"
	})

	req, _ := http.NewRequest("GET", "/article?_escaped_fragment_=", nil)
	req.RequestURI = "/article?_escaped_fragment_="
	req.Header.Set("User-Agent", "Mozilla/5.0 Chrome/99")
	rr := httptest.NewRecorder()
	setupRoutes().ServeHTTP(rr, req)

	if seen != "/https://example.com/article?_escaped_fragment_=" {
		t.Errorf("rendering service saw %q", seen)
	}
	if token != "tok" {
		t.Errorf("token = %q", token)
	}
	if rr.Body.String() != "<html>OK</html>" {
		t.Errorf("body = %q", rr.Body.String())
	}
	if rr.Header().Get("X-Prerender") != "true" {
		t.Errorf("X-Prerender = %q", rr.Header().Get("X-Prerender"))
	}
	if got := testutil.ToFloat64(requestTotal.WithLabelValues("GET", "200", "true")); got != 1 {
		t.Errorf("prerendered request counter = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(fetchLatency); n != 1 {
		t.Errorf("fetch latency series = %d, want 1", n)
	}
}

func TestPrerenderRouteSkipsAssetsForBots(t *testing.T) {
	setupTest()
	var hits int
	render := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer render.Close()
	usePrerenderService(render.URL+"/", nil)

	req, _ := http.NewRequest("GET", "/home.css", nil)
	req.Header.Set("User-Agent", testBotUA)
	rr := httptest.NewRecorder()
	setupRoutes().ServeHTTP(rr, req)

	if hits != 0 {
		t.Errorf("rendering service called %d times", hits)
	}
	if rr.Header().Get("X-Prerender") != "false" {
		t.Errorf("X-Prerender = %q", rr.Header().Get("X-Prerender"))
	}
	if !strings.Contains(rr.Body.String(), "root") {
		t.Errorf("origin body missing: %q", rr.Body.String())
	}
}

func TestPrerenderRouteServiceFailure(t *testing.T) {
	setupTest()
	render := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "render failed", http.StatusServiceUnavailable)
	}))
	defer render.Close()
	usePrerenderService(render.URL+"/", nil)

	var originHits int
	origin = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { originHits++ })

	req, _ := http.NewRequest("GET", "/page", nil)
	req.Header.Set("User-Agent", testBotUA)
	rr := httptest.NewRecorder()
	setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
	if originHits != 0 {
		t.Errorf("origin called after failed fetch")
	}
	if got := testutil.ToFloat64(fetchErrors.WithLabelValues("503")); got != 1 {
		t.Errorf("fetch error counter = %v, want 1", got)
	}
}

func TestPrerenderRouteUnreachableService(t *testing.T) {
	setupTest()
	req, _ := http.NewRequest("GET", "/page", nil)
	req.Header.Set("User-Agent", testBotUA)
	rr := httptest.NewRecorder()
	setupRoutes().ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if got := testutil.ToFloat64(fetchErrors.WithLabelValues("transport")); got != 1 {
		t.Errorf("transport error counter = %v, want 1", got)
	}
}

func TestPrerenderThroughReverseProxyOrigin(t *testing.T) {
	setupTest()
	app := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Origin", "yes")
		io.WriteString(w, "<div id='root'></div><script src='/app.js'></script>")
	}))
	defer app.Close()
	render := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><h1>rendered</h1></html>")
	}))
	defer render.Close()

	configLock.Lock()
	config.OriginURL = app.URL
	cfg := config
	configLock.Unlock()
	var err error
	if origin, err = newOriginHandler(cfg); err != nil {
		t.Fatal(err)
	}
	usePrerenderService(render.URL+"/", nil)

	gateway := httptest.NewServer(setupRoutes())
	defer gateway.Close()

	for _, tc := range []struct {
		ua, want, flag string
	}{
		{"Twitterbot/1.0", "<html><h1>rendered</h1></html>", "true"},
		{"Mozilla/5.0 Chrome/99", "<div id='root'></div><script src='/app.js'></script>", "false"},
	} {
		req, _ := http.NewRequest("GET", gateway.URL+"/", nil)
		req.Header.Set("User-Agent", tc.ua)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(body) != tc.want {
			t.Errorf("%s: body = %q", tc.ua, body)
		}
		if resp.Header.Get("X-Prerender") != tc.flag {
			t.Errorf("%s: X-Prerender = %q", tc.ua, resp.Header.Get("X-Prerender"))
		}
		if resp.Header.Get("X-Origin") != "yes" {
			t.Errorf("%s: origin headers lost", tc.ua)
		}
	}
}

func TestOriginHandlerValidation(t *testing.T) {
	for _, bad := range []string{"://nope", "example.com/no-scheme"} {
		if _, err := newOriginHandler(Config{OriginURL: bad}); err == nil {
			t.Errorf("expected error for ORIGIN_URL %q", bad)
		}
	}
	h, err := newOriginHandler(Config{StaticDir: t.TempDir()})
	if err != nil || h == nil {
		t.Fatalf("static origin: %v", err)
	}
}

func TestOriginUnavailable(t *testing.T) {
	setupTest()
	var err error
	if origin, err = newOriginHandler(Config{OriginURL: "http://127.0.0.1:1"}); err != nil {
		t.Fatal(err)
	}
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 Chrome/99")
	rr := httptest.NewRecorder()
	setupRoutes().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}
	if rr.Header().Get("X-Prerender") != "false" {
		t.Errorf("X-Prerender = %q", rr.Header().Get("X-Prerender"))
	}
}
