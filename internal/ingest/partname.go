package ingest

import (
	"regexp"
	"strconv"

	"github.com/EgorLis/my-records/internal/domain"
)

const (
	FieldGUID = "guid"
	FieldID   = "id"
)

var partNameRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\[(\d+)\]$`)

// ParsePartName разбирает имя вида field[index].
// Имя поля не проверяется: это делает Reducer.
func ParsePartName(name string) (field string, index int, ok bool) {
	m := partNameRe.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], index, true
}

type fieldKind int

const (
	kindUnknown fieldKind = iota
	kindID
	kindFile
)

// classify: guid/id -> kindID, file1..file3 -> kindFile с номером файла
func classify(field string) (fieldKind, int) {
	switch field {
	case FieldGUID, FieldID:
		return kindID, 0
	}
	if len(field) == len("fileN") && field[:4] == "file" {
		if n := int(field[4] - '0'); n >= 1 && n <= domain.FilesPerRecord {
			return kindFile, n
		}
	}
	return kindUnknown, 0
}

// IsFileField сообщает, ожидается ли для поля файловый payload.
func IsFileField(field string) bool {
	k, _ := classify(field)
	return k == kindFile
}
