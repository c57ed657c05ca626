package prerender

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

// passWriter stamps X-Prerender: false just before the header goes out so the
// value overrides anything the downstream handler set.
type passWriter struct {
	http.ResponseWriter
	wroteHeader bool
	hijacked    bool
}

func (pw *passWriter) stamp() {
	if !pw.wroteHeader {
		pw.wroteHeader = true
		pw.ResponseWriter.Header().Set(headerPrerender, "false")
	}
}

func (pw *passWriter) WriteHeader(code int) {
	// 1xx responses are informational; the final header is still to come.
	if code >= 100 && code <= 199 {
		pw.ResponseWriter.WriteHeader(code)
		return
	}
	pw.stamp()
	pw.ResponseWriter.WriteHeader(code)
}

func (pw *passWriter) Write(p []byte) (int, error) {
	pw.stamp()
	return pw.ResponseWriter.Write(p)
}

func (pw *passWriter) Flush() {
	pw.stamp()
	if flusher, ok := pw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (pw *passWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := pw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response does not implement http.Hijacker")
	}
	pw.hijacked = true
	return hijacker.Hijack()
}

func (pw *passWriter) Unwrap() http.ResponseWriter {
	return pw.ResponseWriter
}

// finish stamps the header when next returned without writing anything.
func (pw *passWriter) finish() {
	if !pw.hijacked {
		pw.stamp()
	}
}

// bufferedWriter lets the downstream handler run to completion without
// reaching the client. Headers go straight to the shared header map; status
// and body are kept here and the body is discarded by the caller.
type bufferedWriter struct {
	header     http.Header
	statusCode int
}

func newBufferedWriter(h http.Header) *bufferedWriter {
	return &bufferedWriter{header: h}
}

func (bw *bufferedWriter) Header() http.Header {
	return bw.header
}

func (bw *bufferedWriter) WriteHeader(code int) {
	if bw.statusCode == 0 && code >= 200 {
		bw.statusCode = code
	}
}

func (bw *bufferedWriter) Write(p []byte) (int, error) {
	if bw.statusCode == 0 {
		bw.statusCode = http.StatusOK
	}
	return len(p), nil
}

// status is the downstream's status, or 200 when it never set one.
func (bw *bufferedWriter) status() int {
	if bw.statusCode == 0 {
		return http.StatusOK
	}
	return bw.statusCode
}
