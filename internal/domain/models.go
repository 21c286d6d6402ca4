package domain

import (
	"time"

	"github.com/google/uuid"
)

// Базовые идентификаторы
type RecordID = uuid.UUID

// FilesPerRecord: сколько файлов несёт одна запись (file1..file3)
const FilesPerRecord = 3

// Запись: guid + три файла в хранилище
type Record struct {
	ID        RecordID  `json:"id"`
	File1     string    `json:"file1"`
	File2     string    `json:"file2"`
	File3     string    `json:"file3"`
	CreatedAt time.Time `json:"created,omitempty"`
	UpdatedAt time.Time `json:"updated,omitempty"`
}

// Keys возвращает ключи файлов в порядке file1, file2, file3.
func (r Record) Keys() [FilesPerRecord]string {
	return [FilesPerRecord]string{r.File1, r.File2, r.File3}
}

// FileKey возвращает ключ файла с номером n (1..3).
func (r Record) FileKey(n int) (string, bool) {
	if n < 1 || n > FilesPerRecord {
		return "", false
	}
	return r.Keys()[n-1], true
}

// Страница списка записей
type RecordPage struct {
	TotalPages int      `json:"total_pages"`
	Data       []Record `json:"data"`
}
