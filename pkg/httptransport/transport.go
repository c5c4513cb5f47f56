// Package httptransport provides composable http.RoundTripper middleware
// for outbound requests: request ids, structured request logging, and
// OpenTelemetry instrumentation.
package httptransport

import "net/http"

// Middleware wraps an http.RoundTripper with additional behavior.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Wrap applies middlewares to rt. The first middleware becomes the
// outermost layer, seeing the request first. A nil rt defaults to
// http.DefaultTransport.
func Wrap(rt http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}
