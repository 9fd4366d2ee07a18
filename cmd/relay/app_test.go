package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contact-relay/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.TurnstileSecretKey = "ts"
	cfg.TelegramBotToken = "bt"
	cfg.TelegramChatID = "1"
	return cfg
}

func TestHealth_Memory(t *testing.T) {
	a := newApp(testConfig(), zerolog.Nop(), nil)

	w := httptest.NewRecorder()
	a.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"store":"memory"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealth_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a := newApp(testConfig(), zerolog.Nop(), rdb)

	w := httptest.NewRecorder()
	a.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"store":"redis"}`, w.Body.String())

	mr.Close()
	w = httptest.NewRecorder()
	a.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"ok":false,"store":"redis"}`, w.Body.String())
}

func TestRoutes_RelayEndToEnd(t *testing.T) {
	siteverify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	t.Cleanup(siteverify.Close)

	var sent map[string]any
	tg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(tg.Close)

	cfg := testConfig()
	cfg.TurnstileVerifyURL = siteverify.URL
	cfg.TelegramAPIBase = tg.URL
	cfg.AllowedOrigins = "https://site.dev"

	var logs bytes.Buffer
	a := newApp(cfg, zerolog.New(&logs), nil)
	h := a.routes()

	body := `{"name":"Ada","email":"a@b.c","message":"hi","turnstileToken":"t","dwellMs":4000}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Origin", "https://site.dev")
	r.Header.Set("CF-Connecting-IP", "203.0.113.5")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, "https://site.dev", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "1", sent["chat_id"])
	assert.Contains(t, logs.String(), "request completed")
}

func TestRoutes_GuardRejectsWithRelayBody(t *testing.T) {
	cfg := testConfig()
	cfg.GuardEnabled = true
	cfg.GuardRPS = 0.01
	cfg.GuardBurst = 1

	a := newApp(cfg, zerolog.Nop(), nil)
	h := a.routes()

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
		r.Header.Set("CF-Connecting-IP", "203.0.113.9")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, send().Code)
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Too many requests. Try again later."}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
