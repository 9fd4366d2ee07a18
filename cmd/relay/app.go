package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"contact-relay/contact"
	"contact-relay/internal/config"
	"contact-relay/middleware/ratelimit"
	"contact-relay/middleware/ratelimit/application"
	"contact-relay/middleware/ratelimit/domain"
	"contact-relay/middleware/ratelimit/infra"
	"contact-relay/upstream/telegram"
	"contact-relay/upstream/turnstile"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app junta as dependências montadas a partir da config.
// rdb nil significa modo memória.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	rdb     *redis.Client
	origins contact.Origins

	counter domain.CounterStore
	stats   domain.StatsStore
	guard   *infra.TokenBucketStore
	relay   *contact.Handler
}

func newApp(cfg config.Config, log zerolog.Logger, rdb *redis.Client) *app {
	a := &app{
		cfg:     cfg,
		log:     log,
		rdb:     rdb,
		origins: contact.ParseOrigins(cfg.AllowedOrigins),
	}

	rule := domain.Rule{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow}
	if rdb != nil {
		a.counter = infra.NewRedisWindowStore(rdb, rule, infra.WithWindowPrefix(cfg.RateLimitPrefix))
		a.stats = infra.NewRedisStatsStore(rdb, infra.WithStatsPrefix(cfg.StatsPrefix), infra.WithStatsTTL(cfg.StatsTTL))
	} else {
		a.counter = infra.NewMemoryWindowStore(rule)
		a.stats = infra.NewMemoryStatsStore()
	}
	if cfg.GuardEnabled {
		a.guard = infra.NewTokenBucketStore(cfg.GuardRPS, cfg.GuardBurst)
	}

	hc := &http.Client{Timeout: cfg.UpstreamTimeout}
	clientIP := ratelimit.ClientIPKeyFunc(cfg.ClientIPHeader, false)

	a.relay = contact.NewHandler(contact.Options{
		Origins: a.origins,
		Secrets: contact.Secrets{
			TurnstileSecret:  cfg.TurnstileSecretKey,
			TelegramBotToken: cfg.TelegramBotToken,
			TelegramChatID:   cfg.TelegramChatID,
		},
		Limiter: application.Service{
			Store: a.counter,
			OnStoreError: func(key domain.Key, err error) {
				log.Warn().Err(err).Str("ip", string(key)).Msg("rate counter unavailable, allowing")
			},
		},
		ClientIP: clientIP,
		Verifier: turnstile.New(cfg.TurnstileSecretKey,
			turnstile.WithVerifyURL(cfg.TurnstileVerifyURL),
			turnstile.WithHTTPClient(hc)),
		Notifier: telegram.New(cfg.TelegramBotToken,
			telegram.WithAPIBase(cfg.TelegramAPIBase),
			telegram.WithHTTPClient(hc)),
		Stats:         a.stats,
		MinDwellMs:    cfg.MinDwellMs,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		DefaultSource: contact.DefaultSource,
	})
	return a
}

func (a *app) storeName() string {
	if a.rdb != nil {
		return "redis"
	}
	return "memory"
}

// startJanitors limpa as estruturas em memória até ctx terminar.
func (a *app) startJanitors(ctx context.Context) {
	if m, ok := a.counter.(*infra.MemoryWindowStore); ok {
		m.StartJanitor(ctx)
	}
	if a.guard != nil {
		a.guard.StartJanitor(ctx)
	}
}

// routes monta a cadeia, de fora para dentro:
// request id -> access log -> guard -> concorrência -> relay.
func (a *app) routes() http.Handler {
	var relay http.Handler = a.relay
	relay = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            a.cfg.ConcurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: a.cfg.ConcurrencyTimeout,
		Reject:         a.relay.Reject,
	})(relay)
	if a.guard != nil {
		relay = ratelimit.Middleware(ratelimit.Options{
			Store:        a.guard,
			KeyFn:        ratelimit.ClientIPKeyFunc(a.cfg.ClientIPHeader, true),
			RejectStatus: http.StatusTooManyRequests,
			RetryAfter:   time.Second,
			Reject:       a.relay.Reject,
		})(relay)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.health)
	mux.Handle("/", relay)

	var h http.Handler = mux
	h = ratelimit.AccessLog(a.log, a.relay.Reject)(h)
	h = ratelimit.RequestID(h)
	return h
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{"ok": true, "store": a.storeName()}
	if a.rdb != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("health: redis ping failed")
			status = http.StatusServiceUnavailable
			body["ok"] = false
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
