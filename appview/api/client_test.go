package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds struct {
	id, password string
	ok           bool
}

func (s staticCreds) Credentials() (string, string, bool) {
	return s.id, s.password, s.ok
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost:8080/api/"})

	assert.Equal(t, "http://localhost:8080/api", c.BaseURL())
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
}

func TestCredentialHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/api"})

	tests := []struct {
		name     string
		ctx      context.Context
		wantId   string
		wantPass string
	}{
		{
			name: "no credentials in context",
			ctx:  context.Background(),
		},
		{
			name: "signed out session",
			ctx:  WithCredentials(context.Background(), staticCreds{}),
		},
		{
			name:     "signed in session",
			ctx:      WithCredentials(context.Background(), staticCreds{"42", "hunter2", true}),
			wantId:   "42",
			wantPass: "hunter2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Get(tt.ctx, "/recipe/1")
			require.NoError(t, err)

			assert.Equal(t, tt.wantId, got.Get("Auth-Id"))
			assert.Equal(t, tt.wantPass, got.Get("Auth-Password"))
			if tt.wantId == "" {
				assert.NotContains(t, got, "Auth-Id")
				assert.NotContains(t, got, "Auth-Password")
			}
		})
	}
}

func TestTransportStripsForeignCredentials(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Auth-Id", "spoofed")
	req.Header.Set("Auth-Password", "spoofed")

	resp, err := (&http.Client{Transport: CredentialTransport{}}).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, got.Get("Auth-Id"))
	assert.Empty(t, got.Get("Auth-Password"))
	// the caller's request is left alone
	assert.Equal(t, "spoofed", req.Header.Get("Auth-Id"))
}

func TestPostSendsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/user/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "7", body["authorId"])

		w.Write([]byte(`7`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/api"})
	resp, err := c.Post(context.Background(), "/user/login", map[string]string{"authorId": "7", "password": "x"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(7), resp.Result().Int())
}

func TestForbiddenPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	resp, err := c.Delete(context.Background(), "/recipe/3")
	assert.Nil(t, resp)
	require.Error(t, err)

	var rerr *ResponseError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusForbidden, rerr.StatusCode)
	assert.Equal(t, `{"error":"forbidden"}`, string(rerr.Body))
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
	assert.Contains(t, err.Error(), "status 403")
}

func TestServerErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	_, err := c.Get(context.Background(), "/recipe/list")
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.False(t, IsTimeout(err))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Get(context.Background(), "/slow")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, 0, StatusCode(err))
}

func TestForwardKeepsQueryAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/recipe/5", r.URL.Path)
		assert.Equal(t, "page=2", r.URL.RawQuery)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		w.Write(b)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/api"})
	resp, err := c.Forward(context.Background(), http.MethodPut, "recipe/5", "page=2", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(resp.Data))
}

func TestDecode(t *testing.T) {
	resp := &Response{Data: json.RawMessage(`{"name":"pancakes"}`)}
	var v struct{ Name string }
	require.NoError(t, resp.Decode(&v))
	assert.Equal(t, "pancakes", v.Name)

	resp = &Response{Data: json.RawMessage(`not json`)}
	assert.Error(t, resp.Decode(&v))
}

func TestPathsStayUnderBase(t *testing.T) {
	var hits []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.RequestURI)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/api"})
	ctx := WithCredentials(context.Background(), staticCreds{"42", "hunter2", true})

	tests := []struct {
		path    string
		wantErr bool
	}{
		{path: "/recipe/1"},
		{path: "recipe/..data"},
		{path: "/../internal", wantErr: true},
		{path: "recipe/../../internal", wantErr: true},
		{path: "%2e%2e/internal", wantErr: true},
		{path: "recipe/%2E%2E/%2e%2e/internal", wantErr: true},
		{path: `recipe\..\..\internal`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			hits = nil
			_, err := c.Get(ctx, tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				assert.Empty(t, hits)
				return
			}
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.True(t, strings.HasPrefix(hits[0], "/api/"), hits[0])
		})
	}

	_, err := c.Forward(ctx, http.MethodGet, "../internal", "", "", nil)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestOversizedBodyIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", maxBody+1)))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	resp, err := c.Get(context.Background(), "/recipe/list")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestBodyAtLimitIsKept(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", maxBody)))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	resp, err := c.Get(context.Background(), "/recipe/list")
	require.NoError(t, err)
	assert.Len(t, resp.Data, maxBody)
}
