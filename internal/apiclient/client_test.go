package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTokens struct {
	token   string
	cleared int
}

func (m *memTokens) Token(ctx context.Context) (string, error) { return m.token, nil }

func (m *memTokens) Clear(ctx context.Context) error {
	m.token = ""
	m.cleared++
	return nil
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(`{"count":3}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", time.Second, WithTokenSource(&memTokens{token: "abc"}))

	var out struct {
		Count int `json:"count"`
	}
	err := c.Get(context.Background(), "/cart/count", url.Values{"x": {"1"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "/api/cart/count?x=1", gotPath)
	assert.Equal(t, 3, out.Count)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, WithTokenSource(&memTokens{}))
	require.NoError(t, c.Delete(context.Background(), "/cart", nil))
}

func TestClientUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"id":"p1","name":"Lamp"},"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, c.Get(context.Background(), "/products/p1", nil, &out))
	assert.Equal(t, "p1", out.ID)
	assert.Equal(t, "Lamp", out.Name)
}

func TestClientKeepsBodyWithExtraKeys(t *testing.T) {
	raw := []byte(`{"data":[1],"total":5}`)
	assert.Equal(t, raw, unwrapEnvelope(raw))
	assert.Equal(t, []byte(`[1]`), unwrapEnvelope([]byte(`{"data":[1],"success":true}`)))
}

func TestClientUnauthorizedClearsTokenAndRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	}))
	defer srv.Close()

	tokens := &memTokens{token: "stale"}
	redirected := false
	c := NewClient(srv.URL, time.Second,
		WithTokenSource(tokens),
		WithUnauthorizedHandler(func() { redirected = true }),
	)

	err := c.Get(context.Background(), "/auth/me", nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, 1, tokens.cleared)
	assert.Empty(t, tokens.token)
	assert.True(t, redirected)
	assert.Equal(t, "Token expired", Message(err, "fallback"))
}

func TestClientErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Quantity too high"}`, "Quantity too high"},
		{"error string", http.StatusConflict, `{"error":"Already reviewed"}`, "Already reviewed"},
		{"nested error", http.StatusBadRequest, `{"error":{"message":"Bad price"}}`, "Bad price"},
		{"no message", http.StatusInternalServerError, `oops`, "Request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL, time.Second).Post(context.Background(), "/x", map[string]int{"a": 1}, nil)
			require.Error(t, err)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.expected, Message(err, "Request failed"))
		})
	}
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 20*time.Millisecond).Get(context.Background(), "/products", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, "Failed to load", Message(err, "Failed to load"))
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := NewClient(srv.URL, time.Second).Get(context.Background(), "/products", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestClientSendsJSONAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cash", body["paymentMethod"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"o1"}`))
	}))
	defer srv.Close()

	var out struct {
		ID string `json:"id"`
	}
	err := NewClient(srv.URL, time.Second).Do(context.Background(), &Request{
		Method:  http.MethodPost,
		Path:    "/orders",
		Body:    map[string]string{"paymentMethod": "cash"},
		Headers: map[string]string{"Idempotency-Key": "key-1"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "o1", out.ID)
}

func TestClientUploadMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Desk", r.FormValue("name"))

		f, hdr, err := r.FormFile("images")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "desk.jpg", hdr.Filename)
		assert.Equal(t, "jpegbytes", string(data))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Upload(context.Background(), http.MethodPost, "/products",
		map[string]string{"name": "Desk"},
		[]File{{Field: "images", Filename: "desk.jpg", Reader: strings.NewReader("jpegbytes")}},
		nil)
	require.NoError(t, err)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/products", routeLabel("/products/42/images"))
	assert.Equal(t, "/cart", routeLabel("cart"))
}
