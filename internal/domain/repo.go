package domain

import "context"

type RecordsRepo interface {
	Close()
	Ping(context.Context) error

	// FindByID возвращает ErrNotFound, если записи нет.
	FindByID(ctx context.Context, id RecordID) (Record, error)
	// Upsert создаёт запись или атомарно перезаписывает все три ключа существующей.
	Upsert(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id RecordID) error

	// Постраничный список: page начинается с 1.
	List(ctx context.Context, page, pageSize int) ([]Record, error)
	Count(ctx context.Context) (int, error)
}
