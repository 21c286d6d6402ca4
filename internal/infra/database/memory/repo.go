package memory

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/EgorLis/my-records/internal/domain"
)

// Repo: RecordsRepo в памяти процесса (DB_DRIVER=memory и тесты).
type Repo struct {
	logger *log.Logger

	mu    sync.RWMutex
	byID  map[domain.RecordID]domain.Record
	order []domain.RecordID // порядок вставки, как created_at в postgres
	now   func() time.Time
}

func NewRepo(logger *log.Logger) *Repo {
	return &Repo{
		logger: logger,
		byID:   make(map[domain.RecordID]domain.Record),
		now:    time.Now,
	}
}

func (r *Repo) Close()                     { r.logger.Println("memory repo closed") }
func (r *Repo) Ping(context.Context) error { return nil }

func (r *Repo) FindByID(ctx context.Context, id domain.RecordID) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

func (r *Repo) Upsert(ctx context.Context, rec domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if old, ok := r.byID[rec.ID]; ok {
		rec.CreatedAt = old.CreatedAt
	} else {
		rec.CreatedAt = now
		r.order = append(r.order, rec.ID)
	}
	rec.UpdatedAt = now
	r.byID[rec.ID] = rec
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.RecordID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Repo) List(ctx context.Context, page, pageSize int) ([]domain.Record, error) {
	if page <= 0 || pageSize <= 0 {
		return nil, domain.ErrBadParams
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := (page - 1) * pageSize
	if start >= len(r.order) {
		return []domain.Record{}, nil
	}
	end := min(start+pageSize, len(r.order))
	out := make([]domain.Record, 0, end-start)
	for _, id := range r.order[start:end] {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order), nil
}
