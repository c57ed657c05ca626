// Package prerender decides whether a request comes from a crawler that should
// receive a pre-rendered snapshot, and serves that snapshot from an external
// rendering service in place of the application response.
package prerender

import (
	"net/url"
	"strings"
)

// escapedFragmentParam is the crawlable-AJAX query key.
const escapedFragmentParam = "_escaped_fragment_"

// Input holds the request attributes the classifier looks at.
type Input struct {
	URL       string
	Method    string
	UserAgent string
	// BufferAgent is set when the request carried a non-empty X-Bufferbot header.
	BufferAgent bool
}

// ShouldPreRender reports whether the request described by in should be
// answered with a pre-rendered snapshot. Exclusion rules are checked first;
// inclusion rules only run when none of them fired.
func ShouldPreRender(in Input) bool {
	if in.UserAgent == "" {
		return false
	}
	if in.Method != "GET" {
		return false
	}
	if hasIgnoredExtension(in.URL) {
		return false
	}

	if hasEscapedFragment(in.URL) {
		return true
	}
	if in.BufferAgent {
		return true
	}
	return isCrawler(in.UserAgent)
}

func hasIgnoredExtension(rawURL string) bool {
	for _, ext := range extensionsToIgnore {
		if strings.Contains(rawURL, ext) {
			return true
		}
	}
	return false
}

func isCrawler(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, crawler := range crawlerUserAgents {
		if strings.Contains(ua, crawler) {
			return true
		}
	}
	return false
}

// hasEscapedFragment looks for the key only. Pairs are split on '&' alone and
// values are never decoded, so a malformed value cannot hide the key. A key
// that fails to unescape is compared as written.
func hasEscapedFragment(rawURL string) bool {
	rawURL, _, _ = strings.Cut(rawURL, "#")
	_, rawQuery, ok := strings.Cut(rawURL, "?")
	if !ok {
		return false
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		key, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if key == escapedFragmentParam {
			return true
		}
	}
	return false
}
