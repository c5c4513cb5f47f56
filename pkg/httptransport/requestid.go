package httptransport

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID returns a middleware that stamps every outbound request with an
// X-Request-ID header, so client and backend logs correlate. A valid id
// already set by the caller is kept; anything else is replaced with a fresh
// UUID v4. Valid ids are at most 128 bytes of printable ASCII (0x20–0x7E).
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if !isValidRequestID(r.Header.Get("X-Request-ID")) {
				r = r.Clone(r.Context())
				r.Header.Set("X-Request-ID", uuid.New().String())
			}
			return next.RoundTrip(r)
		})
	}
}

// isValidRequestID checks that id is non-empty, at most 128 bytes, and
// contains only printable ASCII (0x20–0x7E).
func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}
