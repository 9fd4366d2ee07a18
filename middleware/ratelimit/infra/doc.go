// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - RedisWindowStore: contador durável por (IP, janela) com TTL, via go-redis
//   - MemoryWindowStore: timestamps por IP em memória, fallback por processo
//   - TokenBucketStore: token bucket por chave usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limite de concorrência
//   - MemoryStatsStore / RedisStatsStore: contagem de desfechos do relay
package infra
