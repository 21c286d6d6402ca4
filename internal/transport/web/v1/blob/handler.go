package blob

import (
	"io"
	"log"
	"net/http"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/EgorLis/my-records/internal/transport/web/logx"
	"github.com/EgorLis/my-records/internal/transport/web/mw"
	v1 "github.com/EgorLis/my-records/internal/transport/web/v1"
)

// Handler: прямой доступ к хранилищу по ключу, в обход записей.
// Нужен для разбора осиротевших файлов.
type Handler struct {
	Log     *log.Logger
	Storage domain.BlobStore
}

// Get godoc
// @Summary     Download blob by storage key
// @Tags        blob
// @Produce     octet-stream
// @Param       key path string true "storage key"
// @Success     200 {file}   []byte
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/blob/{key} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "blob.get"
	reqID := mw.RequestIDFromCtx(r.Context())
	key := r.PathValue("key")

	rc, err := h.Storage.Get(r.Context(), key)
	if err != nil {
		logx.Error(h.Log, reqID, op, "open failed", err, "key", key)
		v1.WriteDomainError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	n, err := io.Copy(w, rc)
	if err != nil {
		logx.Error(h.Log, reqID, op, "stream interrupted", err, "key", key, "written", n)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "key", key, "bytes", n)
}

// Delete godoc
// @Summary     Delete blob by storage key
// @Description Удаляет объект по ключу. Записи, которые на него ссылаются, не меняются.
// @Tags        blob
// @Produce     json
// @Param       key path string true "storage key"
// @Success     200 {object} domain.APIEnvelope{response=object}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/blob/{key} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "blob.delete"
	reqID := mw.RequestIDFromCtx(r.Context())
	key := r.PathValue("key")

	if err := h.Storage.Delete(r.Context(), key); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "key", key)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "key", key)
	v1.WriteOKResponse(w, r, map[string]any{"deleted": true, "key": key})
}
