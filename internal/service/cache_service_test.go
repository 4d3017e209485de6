package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
)

type fakeCacheRepo struct {
	entries  map[string][]byte
	ttls     map[string]time.Duration
	patterns []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
		}
	}
	return nil
}

func TestCacheServiceGetMissThenHit(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out string
	hit, err := svc.Get(context.Background(), "k1", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "k1", "payload", 0))
	hit, err = svc.Get(context.Background(), "k1", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "payload", out)
}

func TestCacheServiceSetAppliesDefaultTTL(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, nil, 5*time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "k1", 42, 0))
	assert.Equal(t, 5*time.Minute, repo.ttls["k1"])

	require.NoError(t, svc.Set(context.Background(), "k2", 42, time.Second))
	assert.Equal(t, time.Second, repo.ttls["k2"])
}

func TestCacheServiceDisabledShortCircuits(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k1", "payload", 0))
	assert.Empty(t, repo.entries)

	var out string
	hit, err := svc.Get(context.Background(), "k1", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Invalidate(context.Background(), "k*"))
	assert.Empty(t, repo.patterns)
}

func TestCacheServiceInvalidateDelegatesPattern(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "analytics:overview:user-1:month", 1, 0))
	require.NoError(t, svc.Set(context.Background(), "analytics:overview:user-2:month", 2, 0))

	require.NoError(t, svc.Invalidate(context.Background(), "analytics:overview:user-1:*"))
	require.Len(t, repo.patterns, 1)
	assert.Equal(t, "analytics:overview:user-1:*", repo.patterns[0])
	assert.NotContains(t, repo.entries, "analytics:overview:user-1:month")
	assert.Contains(t, repo.entries, "analytics:overview:user-2:month")
}

func TestAnalyticsInvalidateOverviewDropsAllRanges(t *testing.T) {
	repo := newFakeCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewAnalyticsService(&fakeCohortProvider{}, cache, nil, nil, AnalyticsServiceConfig{})

	require.NoError(t, cache.Set(context.Background(), "analytics:overview:user-1:month", 1, 0))
	require.NoError(t, cache.Set(context.Background(), "analytics:overview:user-1:year", 1, 0))

	require.NoError(t, svc.InvalidateOverview(context.Background(), "user-1"))
	assert.Empty(t, repo.entries)
	require.Len(t, repo.patterns, 1)
	assert.Equal(t, "analytics:overview:user-1:*", repo.patterns[0])
}
