package git

import (
	"net/http"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
)

// LoggingTransport logs each outbound request at debug level. Credential
// headers are never written.
type LoggingTransport struct {
	Transport http.RoundTripper
}

// NewLoggingTransport wraps transport, defaulting to http.DefaultTransport.
func NewLoggingTransport(transport http.RoundTripper) *LoggingTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &LoggingTransport{Transport: transport}
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := clog.FromContext(req.Context())
	start := time.Now()

	log.Debugf("HTTP %s %s headers=%v", req.Method, req.URL.String(), redactHeaders(req.Header))

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		log.Debugf("HTTP %s %s failed after %v: %v", req.Method, req.URL.Path, time.Since(start), err)
		return nil, err
	}

	log.Debugf("HTTP %s %s -> %s (%v)", req.Method, req.URL.Path, resp.Status, time.Since(start))
	return resp, nil
}

var sensitiveHeaders = []string{
	"authorization",
	"x-api-key",
	"x-auth-token",
	"cookie",
	"set-cookie",
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if isSensitiveHeader(name) {
			out[name] = "[REDACTED]"
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func isSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveHeaders {
		if lower == s {
			return true
		}
	}
	return false
}
