package recordcache

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/EgorLis/my-records/internal/infra/database/memory"
)

type mapCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	closed bool
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.data[key], nil
}

func (c *mapCache) Set(_ context.Context, key string, val []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close()                     { c.closed = true }

// countingRepo считает обращения к FindByID
type countingRepo struct {
	*memory.Repo
	finds int

	afterFind func() // между чтением из БД и записью в кеш
}

func (r *countingRepo) FindByID(ctx context.Context, id domain.RecordID) (domain.Record, error) {
	r.finds++
	rec, err := r.Repo.FindByID(ctx, id)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return rec, err
}

func setup() (*Repo, *countingRepo, *mapCache) {
	logger := log.New(io.Discard, "", 0)
	inner := &countingRepo{Repo: memory.NewRepo(logger)}
	cache := newMapCache()
	return New(inner, cache, 60, logger), inner, cache
}

func TestFindByIDReadThrough(t *testing.T) {
	ctx := context.Background()
	r, inner, cache := setup()
	id := uuid.New()
	require.NoError(t, r.Upsert(ctx, domain.Record{ID: id, File1: "a", File2: "b", File3: "c"}))

	first, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	second, err := r.FindByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.finds)
	assert.Equal(t, first.Keys(), second.Keys())
	assert.Contains(t, cache.data, domain.CacheKeyRecord(id))
}

func TestUpsertInvalidates(t *testing.T) {
	ctx := context.Background()
	r, _, cache := setup()
	id := uuid.New()
	require.NoError(t, r.Upsert(ctx, domain.Record{ID: id, File1: "a", File2: "b", File3: "c"}))
	_, err := r.FindByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, r.Upsert(ctx, domain.Record{ID: id, File1: "x", File2: "y", File3: "z"}))
	assert.NotContains(t, cache.data, domain.CacheKeyRecord(id))

	rec, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "x", rec.File1)
}

func TestOverwriteDuringReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	r, inner, cache := setup()
	id := uuid.New()
	require.NoError(t, r.Upsert(ctx, domain.Record{ID: id, File1: "old1", File2: "old2", File3: "old3"}))

	inner.afterFind = func() {
		require.NoError(t, r.Upsert(ctx, domain.Record{ID: id, File1: "new1", File2: "new2", File3: "new3"}))
	}
	stale, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "old1", stale.File1)
	assert.NotContains(t, cache.data, domain.CacheKeyRecord(id))

	fresh, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new1", fresh.File1)
	assert.Contains(t, cache.data, domain.CacheKeyRecord(id))
}

func TestDeleteDuringReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	r, inner, cache := setup()
	id := uuid.New()
	require.NoError(t, r.Upsert(ctx, domain.Record{ID: id, File1: "a", File2: "b", File3: "c"}))

	inner.afterFind = func() { require.NoError(t, r.Delete(ctx, id)) }
	_, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	assert.NotContains(t, cache.data, domain.CacheKeyRecord(id))

	_, err = r.FindByID(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	r, _, _ := setup()
	id := uuid.New()
	require.NoError(t, r.Upsert(ctx, domain.Record{ID: id, File1: "a", File2: "b", File3: "c"}))
	_, err := r.FindByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, id))
	_, err = r.FindByID(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCacheErrorFallsBackToRepo(t *testing.T) {
	ctx := context.Background()
	r, inner, cache := setup()
	id := uuid.New()
	require.NoError(t, r.Upsert(ctx, domain.Record{ID: id, File1: "a", File2: "b", File3: "c"}))
	cache.getErr = errors.New("redis down")

	rec, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, 1, inner.finds)
}

func TestCloseClosesCache(t *testing.T) {
	r, _, cache := setup()
	r.Close()
	assert.True(t, cache.closed)
}
