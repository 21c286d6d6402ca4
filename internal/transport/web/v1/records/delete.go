package records

import (
	"net/http"

	"github.com/EgorLis/my-records/internal/transport/web/logx"
	"github.com/EgorLis/my-records/internal/transport/web/mw"
	v1 "github.com/EgorLis/my-records/internal/transport/web/v1"
)

// Delete godoc
// @Summary     Delete record with its files
// @Tags        records
// @Produce     json
// @Param       id path string true "record id"
// @Success     200 {object} domain.APIEnvelope{response=object}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/records/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "records.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad id", err, "id_raw", r.PathValue("id"))
		v1.WriteDomainError(w, r, err)
		return
	}

	rec, err := h.Records.FindByID(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "record lookup failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	// сначала БД, затем файлы
	if err := h.Records.Delete(r.Context(), id); err != nil {
		logx.Error(h.Log, reqID, op, "db delete failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	for _, key := range rec.Keys() {
		if key == "" {
			continue
		}
		if err := h.Storage.Delete(r.Context(), key); err != nil {
			logx.Error(h.Log, reqID, op, "blob delete failed", err, "id", id, "key", key)
		}
	}

	logx.Info(h.Log, reqID, op, "ok", "id", id)
	v1.WriteOKResponse(w, r, map[string]bool{id.String(): true})
}
