package domain

import (
	"context"
	"time"
)

// StatsEvent representa o desfecho de uma submissão no relay.
//
// Outcome é um rótulo curto e de baixa cardinalidade (ex: "sent", "rate_limited",
// "spam"). Não inclua IP nem e-mail aqui: em Redis isso vira uma chave por cliente.
type StatsEvent struct {
	Outcome string
	Status  int

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do relay.
//
// Implementações podem armazenar em Redis ou memória.
// Quem chama deve tratar erro como best-effort (não derrubar request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
