package session

import (
	"io"
	"sync"
	"testing"
	"time"

	"shoptrends/domain/core"
	"shoptrends/internal"
	"shoptrends/internal/dashboard"
	"shoptrends/internal/errors"
	"shoptrends/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *time.Time) {
	t.Helper()
	logger := internal.NewLoggerTo(io.Discard, internal.LogLevelError)
	board, err := dashboard.New(testkit.ScenarioDataset(), dashboard.Options{Logger: logger})
	require.NoError(t, err)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(board, ttl, logger)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestCreateAndGet(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	s := m.Create()
	got, err := m.Get(s.ID.String())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())
}

func TestGetUnknownOrMalformed(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	for _, id := range []string{"", "not-a-uuid", core.NewSessionID().String()} {
		_, err := m.Get(id)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err), "id %q", id)
	}
}

func TestIdleSessionsExpire(t *testing.T) {
	m, clock := newTestManager(t, time.Minute)

	var expired []core.SessionID
	m.OnExpire(func(id core.SessionID) { expired = append(expired, id) })

	idle := m.Create()
	*clock = clock.Add(45 * time.Second)
	active := m.Create()

	*clock = clock.Add(30 * time.Second)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, []core.SessionID{idle.ID}, expired)

	_, err := m.Get(active.ID.String())
	assert.NoError(t, err)
	_, err = m.Get(idle.ID.String())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestGetRefreshesActivity(t *testing.T) {
	m, clock := newTestManager(t, time.Minute)
	s := m.Create()

	for i := 0; i < 3; i++ {
		*clock = clock.Add(50 * time.Second)
		_, err := m.Get(s.ID.String())
		require.NoError(t, err)
	}
	assert.Zero(t, m.Sweep())
}

func TestGetExpiredWithoutSweep(t *testing.T) {
	m, clock := newTestManager(t, time.Minute)
	s := m.Create()

	*clock = clock.Add(2 * time.Minute)
	_, err := m.Get(s.ID.String())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Zero(t, m.Len())
}

func TestZeroTTLNeverExpires(t *testing.T) {
	m, clock := newTestManager(t, 0)
	s := m.Create()
	*clock = clock.Add(24 * time.Hour)

	assert.Zero(t, m.Sweep())
	_, err := m.Get(s.ID.String())
	assert.NoError(t, err)
}

func TestConcurrentCreateAndDelete(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	var wg sync.WaitGroup
	ids := make(chan core.SessionID, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- m.Create().ID
		}()
	}
	wg.Wait()
	close(ids)

	assert.Equal(t, 32, m.Len())
	for id := range ids {
		assert.True(t, m.Delete(id))
	}
	assert.Zero(t, m.Len())
}
