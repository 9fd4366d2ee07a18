package ratelimit

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// AccessLog coloca um logger por request no contexto (zerolog.Ctx), recupera
// panics e loga status, duração e bytes ao final. 5xx sai como error, 4xx como warn.
func AccessLog(base zerolog.Logger, onPanic RejectFunc) func(next http.Handler) http.Handler {
	if onPanic == nil {
		onPanic = defaultReject
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", RequestIDFrom(r.Context())).
				Logger()
			r = r.WithContext(l.WithContext(r.Context()))

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				if p := recover(); p != nil {
					l.Error().
						Str("panic", fmt.Sprint(p)).
						Str("type", fmt.Sprintf("%T", p)).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")
					if !rec.wrote {
						onPanic(rec, r, http.StatusInternalServerError, 0)
					} else {
						rec.status = http.StatusInternalServerError
					}
				}

				level := zerolog.InfoLevel
				switch {
				case rec.status >= 500:
					level = zerolog.ErrorLevel
				case rec.status >= 400:
					level = zerolog.WarnLevel
				}
				l.WithLevel(level).
					Int("status", rec.status).
					Dur("duration", time.Since(start)).
					Int("bytes", rec.length).
					Msg("request completed")
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	length int
	wrote  bool
}

func (s *statusRecorder) WriteHeader(status int) {
	if s.wrote {
		return
	}
	s.status = status
	s.wrote = true
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if !s.wrote {
		s.WriteHeader(http.StatusOK)
	}
	n, err := s.ResponseWriter.Write(p)
	s.length += n
	return n, err
}
