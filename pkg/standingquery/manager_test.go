package standingquery

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/nsilibridge/pkg/lifespan"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(zerolog.Nop())
	defer m.Close()

	cfg := testConfig(&pagedSource{})
	cfg.UpdateInterval = time.Hour
	q, err := m.Submit(cfg)
	require.NoError(t, err)

	got, err := m.Get(q.ID())
	require.NoError(t, err)
	assert.Same(t, q, got)
	assert.Equal(t, []string{q.ID()}, m.IDs())

	require.NoError(t, m.Cancel(q.ID()))
	assert.ErrorIs(t, m.Cancel(q.ID()), ErrNotFound)
	_, err = m.Get(q.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, Canceled, q.Status())
	assert.Equal(t, 0, m.Len())
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	m := NewManager(zerolog.Nop())
	defer m.Close()

	_, err := m.Submit(Config{})
	assert.ErrorIs(t, err, ErrMissingSource)
	assert.Equal(t, 0, m.Len())
}

func TestManagerReapsFinishedQueries(t *testing.T) {
	m := NewManager(zerolog.Nop())
	defer m.Close()

	cfg := testConfig(&pagedSource{})
	cfg.LifeSpan = lifespan.LifeSpan{Stop: lifespan.Relative(-time.Minute)}
	_, err := m.Submit(cfg)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestManagerCloseCancelsAll(t *testing.T) {
	m := NewManager(zerolog.Nop())

	var queries []*StandingQuery
	for i := 0; i < 3; i++ {
		cfg := testConfig(&pagedSource{})
		cfg.UpdateInterval = time.Hour
		q, err := m.Submit(cfg)
		require.NoError(t, err)
		queries = append(queries, q)
	}
	assert.Equal(t, 3, m.Len())

	m.Close()
	for _, q := range queries {
		assert.Equal(t, Canceled, q.Status())
		select {
		case <-q.Done():
		default:
			t.Fatal("loop still running after Close")
		}
	}
}
