package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Error is a backend-reported failure, carrying the envelope's message and
// code plus the HTTP status of the response it arrived on.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %s (%s, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("api: %s (http %d)", e.Message, e.Status)
}

// IsStatus reports whether err is a backend Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// envelope is the decoded `{success, data, error}` wrapper all backend JSON
// responses use. data is kept raw and only typed once success is known.
type envelope struct {
	success    bool
	hasSuccess bool
	data       jx.Raw
	errMessage string
	errCode    string
}

// decodeResponse applies the envelope contract to one response: unwrap data
// into out on success, surface a typed *Error otherwise.
func decodeResponse(status int, body []byte, out any) error {
	if len(body) == 0 {
		if status >= http.StatusBadRequest {
			return &Error{Status: status, Message: http.StatusText(status)}
		}
		return nil
	}

	env, err := parseEnvelope(body)
	if err != nil {
		// Not an envelope at all: proxies and load balancers answer in
		// plain text when the backend is unreachable.
		if status >= http.StatusBadRequest {
			return &Error{Status: status, Message: http.StatusText(status)}
		}
		return errors.Wrap(err, "decode envelope")
	}

	if status >= http.StatusBadRequest || (env.hasSuccess && !env.success) {
		msg := env.errMessage
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &Error{Status: status, Code: env.errCode, Message: msg}
	}

	if out == nil || len(env.data) == 0 || env.data.Type() == jx.Null {
		return nil
	}
	if err := json.Unmarshal(env.data, out); err != nil {
		return errors.Wrap(err, "decode envelope data")
	}
	return nil
}

// parseEnvelope streams the wrapper object, capturing data without decoding
// it and tolerating unknown sibling fields.
func parseEnvelope(body []byte) (envelope, error) {
	var env envelope
	d := jx.DecodeBytes(body)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "success":
			v, err := d.Bool()
			if err != nil {
				return errors.Wrap(err, "success")
			}
			env.success = v
			env.hasSuccess = true
			return nil
		case "data":
			raw, err := d.Raw()
			if err != nil {
				return errors.Wrap(err, "data")
			}
			env.data = raw
			return nil
		case "error":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				switch string(key) {
				case "message":
					s, err := d.Str()
					if err != nil {
						return errors.Wrap(err, "error.message")
					}
					env.errMessage = s
					return nil
				case "code":
					// Codes arrive as strings or bare numbers depending on
					// the backend version.
					switch d.Next() {
					case jx.String:
						s, err := d.Str()
						if err != nil {
							return errors.Wrap(err, "error.code")
						}
						env.errCode = s
					case jx.Number:
						n, err := d.Int()
						if err != nil {
							return errors.Wrap(err, "error.code")
						}
						env.errCode = strconv.Itoa(n)
					default:
						return d.Skip()
					}
					return nil
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return envelope{}, err
	}
	return env, nil
}
