package httptransport

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// LogRequests returns a middleware that logs every outbound request with
// method, URL, status, and duration. The logger comes from the request
// context (zctx), so request-scoped fields propagate.
func LogRequests() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			lg := zctx.From(r.Context())
			start := time.Now()

			resp, err := next.RoundTrip(r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("url", r.URL.Redacted()),
				zap.Duration("duration", time.Since(start)),
			}
			if id := r.Header.Get("X-Request-ID"); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			if err != nil {
				lg.Warn("Request failed", append(fields, zap.Error(err))...)
				return resp, err
			}
			lg.Debug("Request", append(fields, zap.Int("status", resp.StatusCode))...)
			return resp, nil
		})
	}
}
