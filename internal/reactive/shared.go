package reactive

import (
	"context"
	"encoding/json"
	"time"

	"shoptrends/internal"
	"shoptrends/ports"

	"golang.org/x/sync/singleflight"
)

// Shared serves node values across sessions whose inputs are identical. Concurrent
// misses for one key are collapsed into a single computation.
type Shared struct {
	cache  ports.OutputCache
	ttl    time.Duration
	group  singleflight.Group
	logger *internal.Logger
}

// NewShared wraps an output cache; a nil cache disables sharing
func NewShared(cache ports.OutputCache, ttl time.Duration, logger *internal.Logger) *Shared {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Shared{cache: cache, ttl: ttl, logger: logger}
}

// Do returns the value stored under key, or computes, stores and returns it.
// hit reports whether the value came from the cache or another caller's computation.
func (s *Shared) Do(ctx context.Context, key string, decode DecodeFunc, compute func() (interface{}, error)) (value interface{}, hit bool, err error) {
	if s == nil || s.cache == nil {
		v, err := compute()
		return v, false, err
	}

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("[Shared] cache get failed for %s: %v", key, err)
	} else if ok {
		if v, err := decode(data); err == nil {
			return v, true, nil
		}
		s.logger.Warn("[Shared] dropping undecodable entry %s", key)
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(v); err != nil {
			s.logger.Warn("[Shared] cannot encode %s: %v", key, err)
		} else if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("[Shared] cache set failed for %s: %v", key, err)
		}
		return v, nil
	})
	return v, shared, err
}
