// Package domain define contratos e tipos de domínio para rate limit, concorrência
// e estatísticas do relay de contato.
//
// Este pacote não depende de net/http nem de implementações concretas.
// CounterStore é o contrato da janela fixa por IP (Redis ou memória);
// LimiterStore é o contrato do guard global em token bucket.
package domain
