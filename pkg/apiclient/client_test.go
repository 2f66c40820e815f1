package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api", MaxFailures: 2}, nil, nil)
	require.NoError(t, err)
	return c
}

func TestClient_GetUnwrapsData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appointments/a1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "c-1", r.Header.Get("X-Clinic-ID"))
		assert.Equal(t, "scheduled", r.URL.Query().Get("status"))
		assert.False(t, r.URL.Query().Has("search"))
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"a1","status":"scheduled"}}`)
	})

	var out item
	err := c.Get(context.Background(), "/appointments/a1",
		map[string]string{"status": "scheduled", "search": ""}, &out,
		WithBearer("tok"), WithHeader("X-Clinic-ID", "c-1"))
	require.NoError(t, err)
	assert.Equal(t, item{ID: "a1", Status: "scheduled"}, out)
}

func TestClient_BareBodyAndRaw(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"a1"},{"id":"a2"}]`)
	})

	var list []item
	require.NoError(t, c.Get(context.Background(), "appointments", nil, &list))
	assert.Len(t, list, 2)

	var raw []byte
	require.NoError(t, c.Get(context.Background(), "appointments", nil, &raw))
	assert.JSONEq(t, `[{"id":"a1"},{"id":"a2"}]`, string(raw))
}

func TestClient_PatchSendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"cancelled"}`, string(body))
		_, _ = io.WriteString(w, `{"data":{"id":"a1","status":"cancelled"}}`)
	})

	var out item
	require.NoError(t, c.Patch(context.Background(), "/appointments/a1", map[string]string{"status": "cancelled"}, &out))
	assert.Equal(t, "cancelled", out.Status)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", 400, `{"message":"Doctor is unavailable"}`, "Doctor is unavailable"},
		{"error string", 409, `{"error":"Slot already booked"}`, "Slot already booked"},
		{"error object", 422, `{"error":{"message":"Invalid patient"}}`, "Invalid patient"},
		{"errors array", 422, `{"errors":[{"message":"date is required"}]}`, "date is required"},
		{"html", 502, `<html>bad gateway</html>`, "Something went wrong (status 502)"},
		{"empty", 404, ``, "Something went wrong (status 404)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := c.Get(context.Background(), "/x", nil, nil)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusServiceUnavailable, StatusOf(c.Get(context.Background(), "/x", nil, nil)))
	}
	assert.ErrorIs(t, c.Get(context.Background(), "/x", nil, nil), ErrUnavailable)
	assert.Equal(t, 2, calls)
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 5; i++ {
		assert.True(t, IsNotFound(c.Get(context.Background(), "/x", nil, nil)))
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"}, nil, nil)
	assert.Error(t, err)
}

func TestUnwrap(t *testing.T) {
	assert.Equal(t, `[1]`, string(Unwrap([]byte(` {"data":[1]} `))))
	assert.Equal(t, `{"id":"x"}`, string(Unwrap([]byte(`{"id":"x"}`))))
	assert.Equal(t, `{"data":null}`, string(Unwrap([]byte(`{"data":null}`))))
}

func TestClient_RawResponseKeepsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":"a1"}],"pagination":{"total":9}}`)
	})

	var full RawResponse
	require.NoError(t, c.Get(context.Background(), "appointments", nil, &full))
	assert.JSONEq(t, `{"data":[{"id":"a1"}],"pagination":{"total":9}}`, string(full))
}
