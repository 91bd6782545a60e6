package main

import (
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tunecase/internal/access"
	"tunecase/internal/blob"
	"tunecase/internal/config"
	"tunecase/internal/store/memory"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:    config.ServerConfig{Port: 8080, Host: "127.0.0.1", PublicBaseURL: "http://api.test", ShutdownTimeout: time.Second},
		Security:  config.SecurityConfig{TokenSecret: "0123456789abcdef"},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://app.test"}},
		Logging:   config.LoggingConfig{Level: "info", Format: "json"},
		Storage:   config.StorageConfig{Driver: config.StorageLocal, Dir: t.TempDir()},
		RateLimit: config.RateLimitConfig{PerMinute: 60, Burst: 3},
	}
}

func TestBootstrapDemoDataIsIdempotent(t *testing.T) {
	st := memory.New()
	a, err := newApp(testConfig(t), st)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bootstrapDemoData(ctx, a))
	require.NoError(t, bootstrapDemoData(ctx, a))

	_, user, err := a.users.Login(ctx, demoEmail, demoPassword)
	require.NoError(t, err)

	p := access.Principal{UserID: user.ID, Email: user.Email}
	list, err := a.albums.List(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, len(demoAlbums))

	tracks, err := a.songs.List(ctx, p)
	require.NoError(t, err)
	require.Len(t, tracks, 12)
	require.True(t, strings.HasPrefix(tracks[0].Image, "http://api.test/media/"))
}

func TestAppHandlerWiresMiddleware(t *testing.T) {
	a, err := newApp(testConfig(t), memory.New())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "http://app.test", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "req-1", rr.Header().Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, "API is running", body["message"])
}

func TestAppHandlerLimitsLogin(t *testing.T) {
	a, err := newApp(testConfig(t), memory.New())
	require.NoError(t, err)

	last := 0
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"x@example.com","password":"secret1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		a.handler.ServeHTTP(rr, req)
		last = rr.Code
		if i < 3 {
			require.Equal(t, http.StatusUnauthorized, rr.Code)
		}
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}

func TestPlaceholderImagePassesImageCheck(t *testing.T) {
	obj, err := placeholderImage("x.png", color.Black)
	require.NoError(t, err)
	require.Empty(t, blob.CheckImage("image", obj))
	require.Equal(t, "image/png", obj.ContentType)
}
