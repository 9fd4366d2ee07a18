package ratelimit

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader é o header de correlação lido do proxy e devolvido ao cliente.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID reaproveita o X-Request-ID recebido ou gera um UUID novo,
// guarda no contexto e devolve no header da resposta.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFrom devolve o id da request ou "" se RequestID não rodou.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
