package storage

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RecordFetch(t *testing.T) {
	s := NewMemoryStore()
	clock := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	assert.False(t, s.HasData())
	assert.True(t, s.GetLastFetchTime().IsZero())

	s.RecordFetch("Pipeline", 0, errors.New("quota exceeded"), time.Second)
	s.RecordFetch("Pipeline", 0, errors.New("quota exceeded"), time.Second)
	st, ok := s.Status("Pipeline")
	require.True(t, ok)
	assert.Equal(t, 2, st.ConsecutiveFailures)
	assert.Equal(t, "quota exceeded", st.LastError)
	assert.False(t, st.Healthy())
	assert.False(t, s.HasData())

	clock = clock.Add(time.Minute)
	s.RecordFetch("Pipeline", 42, nil, 200*time.Millisecond)
	st, _ = s.Status("Pipeline")
	assert.True(t, st.Healthy())
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.Equal(t, 42, st.Rows)
	assert.Equal(t, clock, st.LastSuccess)
	assert.True(t, s.HasData())
	assert.Equal(t, clock, s.GetLastFetchTime())

	s.RecordFetch("Drip", 0, errors.New("down"), 0)
	st, _ = s.Status("Pipeline")
	assert.Equal(t, 42, st.Rows)

	statuses := s.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "Drip", statuses[0].Sheet)
	assert.Equal(t, "Pipeline", statuses[1].Sheet)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.RecordFetch("Sheet", i, nil, 0)
			_ = s.Statuses()
		}(i)
	}
	wg.Wait()

	assert.True(t, s.HasData())
	assert.Len(t, s.Statuses(), 1)
}
