// Package ratelimit fornece adapters HTTP (net/http) que ficam na borda do relay de
// contato: guard global, limite de concorrência, request id e access log.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (janela por IP, acquire/timeout) sem net/http
//   - infra: implementações concretas (Redis, memória, token bucket, semáforo)
//   - ratelimit (este pacote): middlewares HTTP + extração de IP + tradução para status/headers
//
// Ordem no binário (cmd/relay), de fora para dentro:
//
//  1. RequestID e AccessLog (logger por request, recover)
//  2. Middleware: guard global opcional (429)
//  3. ConcurrencyMiddleware (503 quando não há vaga no timeout)
//  4. o endpoint de contato, que aplica a janela fixa por IP
//
// As rejeições usam um RejectFunc injetado para que o corpo JSON e os headers
// CORS sejam os mesmos do endpoint.
package ratelimit
