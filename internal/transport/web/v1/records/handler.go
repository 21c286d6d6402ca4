package records

import (
	"log"
	"strconv"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/google/uuid"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	defaultGUIDMax  = 1 << 10
)

type Handler struct {
	Log     *log.Logger
	Records domain.RecordsRepo
	Storage domain.BlobStore

	GUIDMaxBytes int64 // лимит на значение guid[i]
}

func (h *Handler) guidLimit() int64 {
	if h.GUIDMaxBytes <= 0 {
		return defaultGUIDMax
	}
	return h.GUIDMaxBytes
}

func parseID(raw string) (domain.RecordID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrBadParams
	}
	return id, nil
}

// positiveInt: пустое значение -> def; нечисло или <= 0 -> ErrBadParams
func positiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, domain.ErrBadParams
	}
	return n, nil
}
