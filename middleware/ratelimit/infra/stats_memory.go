package infra

import (
	"context"
	"sync"

	"contact-relay/middleware/ratelimit/domain"
)

// MemoryStatsStore conta desfechos do relay em memória.
// Útil para testes e para quando não há Redis configurado.
//
// Não faz expiração: a cardinalidade de Outcome é fixa e pequena.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     int64
	byOutcome map[string]int64
	byStatus  map[int]int64
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		byOutcome: make(map[string]int64),
		byStatus:  make(map[int]int64),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byOutcome[ev.Outcome]++
	if ev.Status != 0 {
		s.byStatus[ev.Status]++
	}
	return nil
}

func (s *MemoryStatsStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByOutcome() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.byOutcome))
	for k, v := range s.byOutcome {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByStatus() map[int]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int64, len(s.byStatus))
	for k, v := range s.byStatus {
		out[k] = v
	}
	return out
}
