package httptransport

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Instrument returns a middleware that traces and measures outbound
// requests via otelhttp.
func Instrument(opts ...otelhttp.Option) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return otelhttp.NewTransport(next, opts...)
	}
}
