package ratelimit

import (
	"net/http"
	"time"

	"contact-relay/middleware/ratelimit/domain"
)

// RejectFunc escreve a resposta quando um middleware barra a request
// (429 no guard, 503 na concorrência, 500 em panic). O relay injeta a sua para
// manter o mesmo corpo JSON e os headers CORS em todas as respostas.
type RejectFunc func(w http.ResponseWriter, r *http.Request, status int, retryAfter time.Duration)

func defaultReject(w http.ResponseWriter, _ *http.Request, status int, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", formatInt(int(retryAfter.Seconds())))
	}
	http.Error(w, http.StatusText(status), status)
}

// Options configura o guard global: um token bucket por chave, antes do relay.
// Desligado por padrão no binário; serve para conter rajadas que a janela fixa
// de 10 minutos só percebe depois de 5 hits por IP.
type Options struct {
	Store               domain.LimiterStore
	KeyFn               KeyFunc
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	Reject              RejectFunc
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ClientIPKeyFunc("", true)
	}
	if opts.Reject == nil {
		opts.Reject = defaultReject
	}

	return func(next http.Handler) http.Handler {
		if opts.Store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// preflight nunca consome token
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", formatFloat(ri.RPS()))
					w.Header().Set("X-RateLimit-Burst", formatInt(ri.Burst()))
				}
			}

			lim := opts.Store.Get(domain.Key(key))
			if lim != nil && !lim.Allow() {
				opts.Reject(w, r, opts.RejectStatus, opts.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
