// Package application contém os casos de uso (regras de aplicação) para rate limit
// por IP e limite de concorrência do relay.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key) retorna uma Decision (allow/deny + retry-after),
// isentando clientes sem IP e liberando quando o store falha.
package application
