package main

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/arun0009/prerender-server/prerender"
)

// Health check handlers
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
	})
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if prerenderer == nil || origin == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// infoHandler reports the effective prerender settings. The token is never echoed.
func infoHandler(w http.ResponseWriter, r *http.Request) {
	configLock.RLock()
	hostname := config.Hostname
	originURL := config.OriginURL
	staticDir := config.StaticDir
	fetchTimeout := config.FetchTimeout
	configLock.RUnlock()

	var pc prerender.Config
	if prerenderer != nil {
		pc = prerenderer.Config()
	}
	upstream := map[string]interface{}{"origin_url": originURL}
	if originURL == "" {
		upstream = map[string]interface{}{"static_dir": staticDir}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"timestamp": time.Now(),
		"prerender": map[string]interface{}{
			"service_url":   pc.Prerender,
			"token_set":     pc.PrerenderToken != "",
			"protocol":      pc.Protocol,
			"host":          pc.Host,
			"trust_proxy":   pc.TrustProxy,
			"fetch_timeout": fetchTimeout.String(),
		},
		"upstream":            upstream,
		"crawler_user_agents": prerender.CrawlerUserAgents(),
		"ignored_extensions":  prerender.IgnoredExtensions(),
		"server": map[string]interface{}{
			"hostname":   hostname,
			"go_version": runtime.Version(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
			"start_time": startTime,
			"uptime":     time.Since(startTime).String(),
		},
	})
}
