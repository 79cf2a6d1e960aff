package container

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shoptrends/adapters/cache"
	"shoptrends/internal"
	"shoptrends/internal/api"
	"shoptrends/internal/config"
	"shoptrends/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: "0"},
		Data:    config.DataConfig{Table: "shopping_trends", SyntheticRows: 120, Seed: 7},
		Session: config.SessionConfig{TTL: time.Minute},
		Cache:   config.CacheConfig{Backend: "memory", TTL: time.Minute, MaxItems: 64},
	}
}

func newContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	c, err := New(cfg, internal.NewLoggerTo(io.Discard, internal.LogLevelError))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

func TestInitSyntheticWithMemoryCache(t *testing.T) {
	c := newContainer(t, testConfig())
	require.NoError(t, c.Init(context.Background()))

	assert.Equal(t, 120, c.Dataset.Len())
	assert.IsType(t, &cache.MemoryCache{}, c.Cache)
	require.NotNil(t, c.Dashboard)
	require.NotNil(t, c.Sessions)

	s := c.Sessions.Create()
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Charts, 9)
	assert.Positive(t, c.Cache.(*cache.MemoryCache).Len())

	stats := c.Stats()
	assert.Equal(t, 120, stats["rows"])
	assert.Equal(t, 1, stats["sessions"])
}

func TestInitWithoutCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "none"
	c := newContainer(t, cfg)
	require.NoError(t, c.Init(context.Background()))
	assert.Nil(t, c.Cache)
}

func TestInitLoadsDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trends.csv")
	csv := "Age,Gender,Category,Purchase Amount (USD),Season\n30,Male,Clothing,40,Fall\n41,Female,Footwear,55,Winter\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	cfg := testConfig()
	cfg.Data.File = path
	c := newContainer(t, cfg)
	require.NoError(t, c.Init(context.Background()))
	assert.Equal(t, 2, c.Dataset.Len())
}

func TestInitMissingDataFileAborts(t *testing.T) {
	cfg := testConfig()
	cfg.Data.File = filepath.Join(t.TempDir(), "missing.csv")
	c := newContainer(t, cfg)

	err := c.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeLoadIO, errors.GetCode(err))
}

func TestUnreachableRedisFallsBackToMemory(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisURL = "redis://127.0.0.1:1/0"
	c := newContainer(t, cfg)

	require.NoError(t, c.Init(context.Background()))
	assert.IsType(t, &cache.MemoryCache{}, c.Cache)
}

func TestNamespaceDependsOnSource(t *testing.T) {
	a := newContainer(t, testConfig())
	require.NoError(t, a.Init(context.Background()))

	cfg := testConfig()
	cfg.Data.Seed = 8
	b := newContainer(t, cfg)
	require.NoError(t, b.Init(context.Background()))

	assert.NotEqual(t, a.namespace(), b.namespace())
	assert.Len(t, a.namespace(), 16)
}

func TestExpiredSessionNotifiesStreams(t *testing.T) {
	c := newContainer(t, testConfig())
	require.NoError(t, c.Init(context.Background()))

	s := c.Sessions.Create()
	events, cancel := c.SSEHub.Subscribe(s.ID.String())
	defer cancel()
	require.Eventually(t, func() bool { return c.SSEHub.ClientCount(s.ID.String()) == 1 }, time.Second, 5*time.Millisecond)

	require.True(t, c.Sessions.Delete(s.ID))
	select {
	case ev := <-events:
		assert.Equal(t, api.EventExpired, ev.EventType)
	case <-time.After(time.Second):
		t.Fatal("no expiry event")
	}
	assert.False(t, c.Sessions.Delete(s.ID))
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
