// Package ingest собирает записи (guid + file1..file3) из упорядоченного
// потока параметров multipart-запроса.
//
// Параметры одной записи идут подряд с одинаковым индексом. Когда индекс
// меняется, предыдущая запись проверяется и сохраняется (или отбрасывается
// вместе с уже сохранёнными файлами). Reducer не потокобезопасен: один
// экземпляр обслуживает ровно один запрос.
package ingest

import (
	"context"
	"errors"
	"io"
	"log"
	"slices"
	"strconv"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/google/uuid"
)

// Part: один параметр потока. Для guid заполнен Value, для fileN заполнен Body.
type Part struct {
	Field string
	Index int
	Value string
	Body  io.Reader
}

// Stats: итоги обработки запроса, для логов
type Stats struct {
	Saved       int
	Overwritten int
	Skipped     int
	Failed      int
}

// pending: открытая запись текущего индекса
type pending struct {
	index int
	id    uuid.UUID
	hasID bool
	keys  [domain.FilesPerRecord]string
}

type Reducer struct {
	store  domain.BlobStore
	repo   domain.RecordsRepo
	diag   *Diagnostics
	logger *log.Logger

	cur      pending
	open     bool
	seen     map[int]bool
	finished bool
	stats    Stats
}

// NewReducer: сообщения добавляются в diag, который принадлежит вызывающему.
func NewReducer(store domain.BlobStore, repo domain.RecordsRepo, diag *Diagnostics, logger *log.Logger) *Reducer {
	return &Reducer{
		store:  store,
		repo:   repo,
		diag:   diag,
		logger: logger,
		seen:   make(map[int]bool),
	}
}

func (r *Reducer) Stats() Stats { return r.stats }

// Observe обрабатывает очередной параметр. Тело файла всегда вычитывается
// до конца, даже если содержимое не сохраняется. После Finish параметры
// игнорируются.
func (r *Reducer) Observe(ctx context.Context, p Part) {
	if r.finished {
		r.logger.Printf("%s observed after finish, ignored", partName(p.Field, p.Index))
		drain(p.Body)
		return
	}
	kind, fileNo := classify(p.Field)
	if kind == kindUnknown {
		r.diag.Unexpected(partName(p.Field, p.Index))
		drain(p.Body)
		return
	}

	r.moveTo(ctx, p.Index)

	switch kind {
	case kindID:
		id, err := uuid.Parse(p.Value)
		if err != nil {
			r.diag.Addf("Unable to parse guid[%d].", p.Index)
			return
		}
		// повторный guid в той же записи: побеждает последний
		r.cur.id = id
		r.cur.hasID = true
	case kindFile:
		r.observeFile(ctx, fileNo, p)
	}
}

func (r *Reducer) observeFile(ctx context.Context, fileNo int, p Part) {
	slot := fileNo - 1
	if r.cur.keys[slot] != "" {
		r.diag.Addf("file%d[%d] was presented twice. The first occurrence will be used.", fileNo, p.Index)
		drain(p.Body)
		return
	}
	if p.Body == nil {
		r.diag.Addf("An error occurred when saving file%d[%d].", fileNo, p.Index)
		return
	}

	key, err := r.store.Create(ctx, p.Body)
	if err != nil {
		r.diag.Addf("An error occurred when saving file%d[%d].", fileNo, p.Index)
		r.logger.Printf("save file%d[%d] failed: %v", fileNo, p.Index, err)
		drain(p.Body)
		return
	}
	r.cur.keys[slot] = key
}

// moveTo закрывает текущую запись, если пришёл параметр другого индекса.
func (r *Reducer) moveTo(ctx context.Context, index int) {
	if r.open && r.cur.index == index {
		return
	}
	r.finalize(ctx)

	if r.seen[index] {
		r.diag.Addf("Parameters of object [%d] are not contiguous. They are processed as a separate object.", index)
	}
	r.seen[index] = true
	r.cur = pending{index: index}
	r.open = true
}

// Finish сохраняет последнюю открытую запись и возвращает накопленные сообщения.
// Повторный вызов ничего не сохраняет.
func (r *Reducer) Finish(ctx context.Context) []string {
	if !r.finished {
		r.finalize(ctx)
		r.finished = true
	}
	return r.diag.Messages()
}

func (r *Reducer) finalize(ctx context.Context) {
	if !r.open {
		return
	}
	c := r.cur
	r.cur = pending{}
	r.open = false

	valid := true
	if !c.hasID {
		r.diag.Addf("Parameter guid[%d] is not provided.", c.index)
		valid = false
	}
	for i, key := range c.keys {
		if key == "" {
			r.diag.Addf("Parameter file%d[%d] is not provided.", i+1, c.index)
			valid = false
		}
	}

	if !valid {
		r.deleteBlobs(ctx, c.keys[:], nil)
		r.diag.Addf("Skipping object [%d]. See messages above.", c.index)
		r.stats.Skipped++
		return
	}
	r.save(ctx, c)
}

func (r *Reducer) save(ctx context.Context, c pending) {
	rec := domain.Record{ID: c.id, File1: c.keys[0], File2: c.keys[1], File3: c.keys[2]}

	prev, err := r.repo.FindByID(ctx, c.id)
	found := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.saveFailed(c, err)
		return
	}
	if found {
		r.diag.Addf("Object with id = %s was already present and will be overwritten.", c.id)
	}

	// при ошибке новые файлы не удаляем: неизвестно, успела ли запись сослаться на них
	if err := r.repo.Upsert(ctx, rec); err != nil {
		r.saveFailed(c, err)
		return
	}

	if found {
		newKeys := rec.Keys()
		prevKeys := prev.Keys()
		r.deleteBlobs(ctx, prevKeys[:], newKeys[:])
		r.stats.Overwritten++
	}
	r.stats.Saved++
}

func (r *Reducer) saveFailed(c pending, err error) {
	r.diag.Addf("An error occurred when saving [%d], id = %s. The object was not saved to the database.", c.index, c.id)
	r.logger.Printf("save [%d] id=%s failed: %v", c.index, c.id, err)
	r.stats.Failed++
}

// deleteBlobs удаляет ключи (кроме пустых и перечисленных в keep).
// Ошибки только логируются.
func (r *Reducer) deleteBlobs(ctx context.Context, keys []string, keep []string) {
	for _, key := range keys {
		if key == "" || slices.Contains(keep, key) {
			continue
		}
		if err := r.store.Delete(ctx, key); err != nil {
			r.logger.Printf("delete blob %s failed: %v", key, err)
		}
	}
}

func drain(body io.Reader) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
}

func partName(field string, index int) string {
	return field + "[" + strconv.Itoa(index) + "]"
}
