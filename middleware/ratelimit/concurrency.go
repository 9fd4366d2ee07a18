package ratelimit

import (
	"errors"
	"net/http"
	"time"

	"contact-relay/middleware/ratelimit/application"
	"contact-relay/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	Reject         RejectFunc
}

// ConcurrencyMiddleware limita quantas requests ficam dentro do relay ao mesmo
// tempo. Cada relay pode segurar duas chamadas externas, então isso também limita
// conexões abertas para Turnstile e Telegram.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Reject == nil {
		opts.Reject = defaultReject
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if errors.Is(err, application.ErrNoSlot) {
					opts.Reject(w, r, opts.RejectStatus, 0)
				}
				// cliente desistiu: não há para quem responder
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
