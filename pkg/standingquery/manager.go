// ABOUTME: Registry of running standing queries
// ABOUTME: Owns their lifetime and removes them once their loop has ended

package standingquery

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Manager tracks standing queries by id
type Manager struct {
	mu      sync.RWMutex
	queries map[string]*StandingQuery
	ctx     context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	log     zerolog.Logger
}

// NewManager creates an empty registry
func NewManager(log zerolog.Logger) *Manager {
	ctx, stop := context.WithCancel(context.Background())
	return &Manager{
		queries: make(map[string]*StandingQuery),
		ctx:     ctx,
		stop:    stop,
		log:     log,
	}
}

// Submit creates and starts a standing query logging through the manager's logger
func (m *Manager) Submit(cfg Config) (*StandingQuery, error) {
	cfg.Logger = m.log
	q, err := New(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.queries[q.ID()] = q
	m.mu.Unlock()

	q.Start(m.ctx)

	m.wg.Add(1)
	go m.reap(q)
	return q, nil
}

func (m *Manager) reap(q *StandingQuery) {
	defer m.wg.Done()
	<-q.Done()

	m.mu.Lock()
	if m.queries[q.ID()] == q {
		delete(m.queries, q.ID())
	}
	m.mu.Unlock()
	m.log.Debug().Str("standing_query", q.ID()).Msg("Standing query removed")
}

// Get looks up a standing query
func (m *Manager) Get(id string) (*StandingQuery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.queries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return q, nil
}

// Cancel cancels and forgets a standing query
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	q, ok := m.queries[id]
	delete(m.queries, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	q.Cancel()
	return nil
}

// IDs returns the ids of live queries in sorted order
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.queries))
	for id := range m.queries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of live queries
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.queries)
}

// Close cancels every query and waits for their loops to exit
func (m *Manager) Close() {
	m.mu.Lock()
	queries := make([]*StandingQuery, 0, len(m.queries))
	for _, q := range m.queries {
		queries = append(queries, q)
	}
	m.mu.Unlock()

	for _, q := range queries {
		q.Cancel()
	}
	m.stop()
	m.wg.Wait()
}
