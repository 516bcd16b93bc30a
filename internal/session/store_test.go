package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etpflow/etpflow/internal/domain"
)

func TestBegin_ReplacesPriorSession(t *testing.T) {
	store := NewStore()

	first := store.Begin(7)
	first.District = "Lucknow"
	first.State = domain.StateDone

	second := store.Begin(7)
	assert.NotSame(t, first, second)
	assert.Equal(t, domain.StateSelectSource, second.State)
	assert.Empty(t, second.District)
	assert.Equal(t, 1, store.Len())
}

func TestEnd_RemovesSession(t *testing.T) {
	store := NewStore()
	store.Begin(7)

	store.End(7)
	assert.Equal(t, 0, store.Len())

	found := store.With(7, func(*Session) {})
	assert.False(t, found)

	// Ending again is a no-op.
	store.End(7)
}

func TestWith_ReportsMissingSession(t *testing.T) {
	store := NewStore()

	called := false
	found := store.With(42, func(*Session) { called = true })

	assert.False(t, found)
	assert.False(t, called)
}

func TestWith_SerializesSameUserActions(t *testing.T) {
	store := NewStore()
	store.Begin(7)

	const workers = 8
	const iterations = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				store.With(7, func(s *Session) {
					s.RangeStart++
				})
			}
		}()
	}
	wg.Wait()

	var got int
	require.True(t, store.With(7, func(s *Session) { got = s.RangeStart }))
	assert.Equal(t, workers*iterations, got)
}

func TestSessionsAreIndependentPerUser(t *testing.T) {
	store := NewStore()
	store.Begin(1)
	store.Begin(2)

	store.With(1, func(s *Session) { s.District = "Kanpur" })

	var other string
	store.With(2, func(s *Session) { other = s.District })
	assert.Empty(t, other)
}
