package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

type Key string

// UnknownKey é a chave usada quando não foi possível identificar o cliente
// (header de IP ausente). Nunca é limitada: fail-open intencional.
const UnknownKey Key = "unknown"

// Rule descreve a janela fixa: no máximo Max hits aceitos por Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Bucket retorna o índice da janela em que `now` cai: floor(unix / window).
func (r Rule) Bucket(now time.Time) int64 {
	secs := int64(r.Window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return now.Unix() / secs
}

// BucketEnd retorna o instante em que a janela corrente termina.
func (r Rule) BucketEnd(now time.Time) time.Time {
	secs := int64(r.Window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return time.Unix((r.Bucket(now)+1)*secs, 0)
}

type Decision struct {
	Allowed bool
	// Count é o valor do contador após a decisão (não incrementa quando bloqueado).
	Count int
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// CounterStore conta hits aceitos por chave dentro da janela da regra.
//
// Hit lê o contador; se já estiver no máximo, bloqueia sem incrementar.
// Caso contrário incrementa e permite. As implementações (Redis, memória)
// são intercambiáveis e escolhidas na construção.
type CounterStore interface {
	Hit(ctx context.Context, key Key, now time.Time) (Decision, error)
}

// Limiter representa algo que pode decidir se uma ação é permitida agora.
//
// Usado pelo guard global (token bucket via golang.org/x/time/rate).
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave (ex: IP, API key).
type LimiterStore interface {
	Get(Key) Limiter
}
