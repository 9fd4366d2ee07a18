package application

import (
	"context"
	"time"

	"contact-relay/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit por IP.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Não sabe também qual store está por trás (Redis ou memória).
type Service struct {
	Store domain.CounterStore
	Now   func() time.Time
	// OnStoreError é chamado quando o store falha; a decisão nesse caso é permitir.
	OnStoreError func(key domain.Key, err error)
}

// Decide registra um hit para a chave e diz se a submissão pode seguir.
//
// Chave vazia ou domain.UnknownKey nunca é limitada (cliente sem IP rastreável).
// Falha do store também libera: o limite é anti-abuso best-effort.
func (s Service) Decide(ctx context.Context, key domain.Key) domain.Decision {
	if s.Store == nil || key == "" || key == domain.UnknownKey {
		return domain.Decision{Allowed: true}
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	dec, err := s.Store.Hit(ctx, key, now)
	if err != nil {
		if s.OnStoreError != nil {
			s.OnStoreError(key, err)
		}
		return domain.Decision{Allowed: true}
	}
	return dec
}
