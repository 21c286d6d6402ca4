package domain

import (
	"context"
	"io"
)

// Хранилище бинарного контента (локальный диск или S3/MinIO).
// Ключ, однажды выданный Create, указывает ровно на один неизменяемый blob до Delete.
type BlobStore interface {
	// Create сохраняет поток целиком под новым уникальным ключом.
	// При коллизии имени повторяет попытку с новым ключом (ограниченное число раз).
	Create(ctx context.Context, r io.Reader) (key string, err error)
	// Get открывает blob на чтение; ErrNotFound для неизвестного ключа.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete удаляет blob; ErrNotFound для неизвестного ключа.
	Delete(ctx context.Context, key string) error
	Ping(context.Context) error
}

// KeyFunc генерирует кандидата на ключ blob'а.
type KeyFunc func() string
