package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func respond(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(body))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		call   func(c *Client, ctx context.Context) error
		want   ErrorKind
	}{
		{
			name:   "404 is NotFound",
			status: http.StatusNotFound,
			call: func(c *Client, ctx context.Context) error {
				return c.Get(ctx, "/v1/friends/requests/nope", nil, &struct{}{})
			},
			want: KindNotFound,
		},
		{
			name:   "409 on create is Conflict",
			status: http.StatusConflict,
			call: func(c *Client, ctx context.Context) error {
				return c.Post(ctx, "/v1/friends/requests", map[string]string{"recipientUsername": "bob"}, nil)
			},
			want: KindConflict,
		},
		{
			name:   "409 on transition is InvalidState",
			status: http.StatusConflict,
			call: func(c *Client, ctx context.Context) error {
				return c.Patch(ctx, "/v1/friends/requests/x/accept", nil, nil)
			},
			want: KindInvalidState,
		},
		{
			name:   "409 on delete is InvalidState",
			status: http.StatusConflict,
			call: func(c *Client, ctx context.Context) error {
				return c.Delete(ctx, "/v1/friends/requests/x", nil)
			},
			want: KindInvalidState,
		},
		{
			name:   "403 is Forbidden",
			status: http.StatusForbidden,
			call: func(c *Client, ctx context.Context) error {
				return c.Patch(ctx, "/v1/friends/requests/x/accept", nil, nil)
			},
			want: KindForbidden,
		},
		{
			name:   "401 is Forbidden",
			status: http.StatusUnauthorized,
			call: func(c *Client, ctx context.Context) error {
				return c.Get(ctx, "/v1/friends/list", nil, &struct{}{})
			},
			want: KindForbidden,
		},
		{
			name:   "500 is NetworkOrServer",
			status: http.StatusInternalServerError,
			call: func(c *Client, ctx context.Context) error {
				return c.Get(ctx, "/v1/friends/list", nil, &struct{}{})
			},
			want: KindNetworkOrServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				respond(w, tt.status, `{"error":"boom"}`)
			})

			err := tt.call(c, context.Background())
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.want, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "boom", apiErr.Message)
		})
	}
}

func TestServerMessageExtraction(t *testing.T) {
	t.Run("message field", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			respond(w, http.StatusConflict, `{"message":"An active friend request already exists"}`)
		})
		err := c.Post(context.Background(), "/v1/friends/requests", nil, nil)
		assert.Equal(t, "An active friend request already exists", UserMessage(err))
	})

	t.Run("error field", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			respond(w, http.StatusNotFound, `{"error":"User not found"}`)
		})
		err := c.Get(context.Background(), "/v1/friends/search", nil, &struct{}{})
		assert.Equal(t, "User not found", UserMessage(err))
	})

	t.Run("unparseable body falls back to status text", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			respond(w, http.StatusBadGateway, `<html>upstream died</html>`)
		})
		err := c.Get(context.Background(), "/v1/friends/list", nil, &struct{}{})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
	})

	t.Run("generic fallback for non-API errors", func(t *testing.T) {
		assert.NotEmpty(t, UserMessage(errors.New("dial tcp: refused")))
	})
}

func TestTransportFailureIsNetworkOrServer(t *testing.T) {
	c, err := New(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	getErr := c.Get(context.Background(), "/v1/friends/list", nil, &struct{}{})
	require.Error(t, getErr)
	assert.Equal(t, KindNetworkOrServer, KindOf(getErr))
}

func TestKindHelpers(t *testing.T) {
	assert.True(t, IsConflict(&APIError{Kind: KindConflict}))
	assert.True(t, IsNotFound(&APIError{Kind: KindNotFound}))
	assert.True(t, IsForbidden(&APIError{Kind: KindForbidden}))
	assert.True(t, IsInvalidState(&APIError{Kind: KindInvalidState}))
	assert.False(t, IsConflict(errors.New("plain")))

	wrapped := &APIError{Kind: KindConflict, Message: "dup"}
	assert.True(t, errors.Is(wrapped, &APIError{Kind: KindConflict}))
	assert.False(t, errors.Is(wrapped, &APIError{Kind: KindNotFound}))
}

func TestSuccessfulDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		respond(w, http.StatusOK, `{"id":"req-1","status":"pending"}`)
	})

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, c.Get(context.Background(), "/v1/friends/requests/req-1", nil, &out))
	assert.Equal(t, "req-1", out.ID)
	assert.Equal(t, "pending", out.Status)
}

func TestInvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not-a-url"})
	assert.Error(t, err)
}
