package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client is the typed request core every service wrapper is built on.
// It owns JSON encoding/decoding, error classification and request
// logging; auth, metrics and rate limiting live on the http.Client's
// transport chain.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     *logrus.Entry
}

type Config struct {
	BaseURL string
	// HTTPClient is optional; callers normally pass one assembled by
	// middleware.NewTransport.
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL: base,
		http:    hc,
		log:     logger.WithField("component", "apiclient"),
	}, nil
}

// Get fetches path (with optional query) and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, opRead)
}

// Post sends body as JSON and decodes the response into out. Creation
// semantics: a 409/422 is classified as Conflict.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, opCreate)
}

// Patch performs a state transition on an existing resource. A 409/422
// is classified as InvalidState.
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out, opTransition)
}

// Delete performs a state transition via DELETE; the response body, if
// any, is decoded into out when out is non-nil.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out, opTransition)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, op mutation) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindNetworkOrServer, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &APIError{Kind: KindNetworkOrServer, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).WithError(err).Warn("request failed")
		return &APIError{Kind: KindNetworkOrServer, Message: "could not reach the server", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp, op)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			Kind:       KindNetworkOrServer,
			StatusCode: resp.StatusCode,
			Message:    "could not decode server response",
			Err:        err,
		}
	}
	return nil
}

// errorEnvelope covers the two message shapes the backend family emits:
// {"error": "..."} and {"message": "..."}.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) errorFromResponse(resp *http.Response, op mutation) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var env errorEnvelope
	message := ""
	if json.Unmarshal(raw, &env) == nil {
		if env.Message != "" {
			message = env.Message
		} else if env.Error != "" {
			message = env.Error
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	apiErr := &APIError{
		Kind:       classify(resp.StatusCode, op),
		StatusCode: resp.StatusCode,
		Message:    message,
	}
	c.log.WithFields(logrus.Fields{
		"status": resp.StatusCode,
		"kind":   apiErr.Kind,
	}).Debug("api error response")
	return apiErr
}
