package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chronorec/internal/profile"
	"github.com/hrygo/chronorec/server/middleware"
)

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.Load(profile.NewViper(), "")
	require.NoError(t, err)
	p.Addr = "127.0.0.1"
	p.Port = 0
	return p
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	s, err := NewServer(context.Background(), testProfile(t), nil)
	require.NoError(t, err)
	t.Cleanup(s.Recognizer.Registry().Close)

	rec := serve(s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))

	rec = serve(s.Handler(), http.MethodPost, "/api/v1/datetime:recognize",
		`{"text":"tomorrow","reference":"2024-06-10T09:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Results []struct {
			Resolution map[string]any `json:"resolution"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "2024-06-11", resp.Results[0].Resolution["timex"])

	rec = serve(s.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chronorec_parse_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	assert.Equal(t, int64(1), s.Stats.Snapshot().ParseTotal)
}

func TestNewServer_DebugOnlyInDev(t *testing.T) {
	tests := []struct {
		mode  string
		debug bool
	}{
		{"demo", false},
		{"prod", false},
		{"dev", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			p := testProfile(t)
			p.Mode = tt.mode
			s, err := NewServer(context.Background(), p, nil)
			require.NoError(t, err)
			t.Cleanup(s.Recognizer.Registry().Close)

			assert.Equal(t, tt.debug, s.echoServer.Debug)
			rec := serve(s.Handler(), http.MethodGet, "/api/v1/cultures", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.debug, strings.Contains(rec.Body.String(), "\n  "))
		})
	}
}

func TestNewServer_RateLimit(t *testing.T) {
	p := testProfile(t)
	p.RateLimit = 1
	p.RateBurst = 1
	s, err := NewServer(context.Background(), p, nil)
	require.NoError(t, err)
	t.Cleanup(s.Recognizer.Registry().Close)

	assert.Equal(t, http.StatusOK, serve(s.Handler(), http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s.Handler(), http.MethodGet, "/healthz", "").Code)
}

func TestNewServer_BadProfile(t *testing.T) {
	p := testProfile(t)
	p.DefaultCulture = "xx-xx"
	_, err := NewServer(context.Background(), p, nil)
	require.Error(t, err)
}

func TestServer_StartShutdown(t *testing.T) {
	s, err := NewServer(context.Background(), testProfile(t), nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", s.echoServer.Listener.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")

	s.Shutdown(context.Background())
}
