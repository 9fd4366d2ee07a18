package infra

import (
	"context"
	"sync"
	"time"

	"contact-relay/middleware/ratelimit/domain"
)

// MemoryWindowStore é o fallback em memória do contador por IP.
//
// Guarda, por chave, os timestamps dos hits aceitos e descarta os que saíram da
// janela a cada verificação. Vive só enquanto o processo vive e NÃO é
// compartilhado entre instâncias: com várias réplicas o limite vira por-instância.
type MemoryWindowStore struct {
	mu           sync.Mutex
	hits         map[domain.Key][]time.Time
	rule         domain.Rule
	cleanupEvery time.Duration
}

type MemoryWindowOption func(*MemoryWindowStore)

func WithWindowCleanupEvery(d time.Duration) MemoryWindowOption {
	return func(s *MemoryWindowStore) { s.cleanupEvery = d }
}

func NewMemoryWindowStore(rule domain.Rule, opts ...MemoryWindowOption) *MemoryWindowStore {
	s := &MemoryWindowStore{
		hits:         make(map[domain.Key][]time.Time),
		rule:         rule,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.CounterStore.
func (s *MemoryWindowStore) Hit(_ context.Context, key domain.Key, now time.Time) (domain.Decision, error) {
	cutoff := now.Add(-s.rule.Window)

	s.mu.Lock()
	defer s.mu.Unlock()

	active := pruneBefore(s.hits[key], cutoff)
	if len(active) >= s.rule.Max {
		s.hits[key] = active
		retry := active[0].Add(s.rule.Window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return domain.Decision{Allowed: false, Count: len(active), RetryAfter: retry}, nil
	}

	active = append(active, now)
	s.hits[key] = active
	return domain.Decision{Allowed: true, Count: len(active)}, nil
}

// Cleanup remove chaves sem nenhum hit dentro da janela.
func (s *MemoryWindowStore) Cleanup(now time.Time) {
	cutoff := now.Add(-s.rule.Window)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ts := range s.hits {
		active := pruneBefore(ts, cutoff)
		if len(active) == 0 {
			delete(s.hits, k)
			continue
		}
		s.hits[k] = active
	}
}

// Len retorna quantas chaves estão sendo rastreadas.
func (s *MemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryWindowStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				s.Cleanup(now)
			}
		}
	}()
}

// pruneBefore mantém apenas timestamps estritamente depois de cutoff.
// Reaproveita o array (chamar com o lock).
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	active := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			active = append(active, t)
		}
	}
	return active
}
