package middleware

import (
	"net/http"
	"time"
)

// TokenSource supplies the current bearer token. Token verification is
// the backend's job; the client only attaches credentials.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource for a long-lived token from config.
type StaticToken string

func (s StaticToken) Token() (string, error) { return string(s), nil }

// AuthTransport injects "Authorization: Bearer <token>" on every
// outbound request. Requests go out unauthenticated when the source
// returns an empty token; the backend answers 401 and the error
// taxonomy surfaces it.
type AuthTransport struct {
	Next   http.RoundTripper
	Source TokenSource
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Source != nil {
		token, err := t.Source.Token()
		if err != nil {
			return nil, err
		}
		if token != "" && req.Header.Get("Authorization") == "" {
			// Clone before mutating; RoundTrippers must not modify the
			// caller's request.
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return t.next().RoundTrip(req)
}

func (t *AuthTransport) next() http.RoundTripper {
	if t.Next != nil {
		return t.Next
	}
	return http.DefaultTransport
}

// NewTransport assembles the standard client transport chain:
// auth -> rate limit -> monitoring -> network.
func NewTransport(source TokenSource) *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &AuthTransport{
			Source: source,
			Next: &RateLimitTransport{
				Next: &MonitoringTransport{},
			},
		},
	}
}
