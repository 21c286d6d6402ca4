// Package recordcache кеширует FindByID поверх любого domain.RecordsRepo.
package recordcache

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/EgorLis/my-records/internal/domain"
)

var _ domain.RecordsRepo = (*Repo)(nil)

const stripes = 64

type Repo struct {
	domain.RecordsRepo

	cache  domain.Cache
	ttl    int // секунд
	logger *log.Logger

	// Поколение записи растёт после каждой записи в репозиторий.
	// Read-through кладёт значение в кеш, только если поколение не
	// изменилось с момента чтения из репозитория.
	locks [stripes]sync.Mutex
	gens  [stripes]uint64
}

func New(repo domain.RecordsRepo, cache domain.Cache, ttlSeconds int, logger *log.Logger) *Repo {
	return &Repo{RecordsRepo: repo, cache: cache, ttl: ttlSeconds, logger: logger}
}

// FindByID читает из кеша, при промахе: из репозитория с записью в кеш.
// Ошибки кеша не мешают чтению из репозитория.
func (r *Repo) FindByID(ctx context.Context, id domain.RecordID) (domain.Record, error) {
	key := domain.CacheKeyRecord(id)
	if b, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Printf("cache get %s: %v", key, err)
	} else if len(b) > 0 {
		var rec domain.Record
		if err := json.Unmarshal(b, &rec); err == nil {
			return rec, nil
		}
		r.logger.Printf("cache decode %s: broken entry", key)
	}

	gen := r.generation(id)
	rec, err := r.RecordsRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	r.fill(ctx, key, rec, gen)
	return rec, nil
}

// fill пишет в кеш под блокировкой полосы: invalidate не может
// проскочить между проверкой поколения и Set.
func (r *Repo) fill(ctx context.Context, key string, rec domain.Record, gen uint64) {
	buf, err := json.Marshal(rec)
	if err != nil {
		return
	}
	i := stripe(rec.ID)
	r.locks[i].Lock()
	defer r.locks[i].Unlock()
	if r.gens[i] != gen {
		r.logger.Printf("cache fill %s skipped: record changed while reading", key)
		return
	}
	if err := r.cache.Set(ctx, key, buf, r.ttl); err != nil {
		r.logger.Printf("cache set %s: %v", key, err)
	}
}

func (r *Repo) generation(id domain.RecordID) uint64 {
	i := stripe(id)
	r.locks[i].Lock()
	defer r.locks[i].Unlock()
	return r.gens[i]
}

func stripe(id domain.RecordID) int { return int(id[len(id)-1]) % stripes }

func (r *Repo) Upsert(ctx context.Context, rec domain.Record) error {
	err := r.RecordsRepo.Upsert(ctx, rec)
	// инвалидируем и при ошибке: состояние в БД неизвестно
	r.invalidate(ctx, rec.ID)
	return err
}

func (r *Repo) Delete(ctx context.Context, id domain.RecordID) error {
	err := r.RecordsRepo.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *Repo) Close() {
	r.RecordsRepo.Close()
	r.cache.Close()
}

func (r *Repo) invalidate(ctx context.Context, id domain.RecordID) {
	i := stripe(id)
	r.locks[i].Lock()
	defer r.locks[i].Unlock()
	r.gens[i]++
	if err := r.cache.Del(ctx, domain.CacheKeyRecord(id)); err != nil {
		r.logger.Printf("cache del %s: %v", id, err)
	}
}
