package records

import (
	"bufio"
	"io"
	"net/http"
	"strconv"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/EgorLis/my-records/internal/transport/web/logx"
	"github.com/EgorLis/my-records/internal/transport/web/mw"
	v1 "github.com/EgorLis/my-records/internal/transport/web/v1"
)

const sniffLen = 512

// GetFile godoc
// @Summary     Download record file
// @Tags        records
// @Produce     octet-stream
// @Param       id     path string true "record id"
// @Param       fileNo path int    true "file number (1..3)"
// @Success     200 {file}   []byte
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/records/{id}/{fileNo} [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	const op = "records.get_file"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad id", err, "id_raw", r.PathValue("id"))
		v1.WriteDomainError(w, r, err)
		return
	}
	fileNo, err := strconv.Atoi(r.PathValue("fileNo"))
	if err != nil || fileNo < 1 || fileNo > domain.FilesPerRecord {
		logx.Error(h.Log, reqID, op, "bad fileNo", domain.ErrBadParams, "file_no_raw", r.PathValue("fileNo"))
		v1.WriteBadParams(w, r, "FileNo must be between 1 and 3.")
		return
	}

	rec, err := h.Records.FindByID(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "record lookup failed", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	key, _ := rec.FileKey(fileNo)

	rc, err := h.Storage.Get(r.Context(), key)
	if err != nil {
		logx.Error(h.Log, reqID, op, "blob open failed", err, "id", id, "file_no", fileNo, "key", key)
		v1.WriteDomainError(w, r, err)
		return
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, sniffLen)
	head, _ := br.Peek(sniffLen)
	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.Header().Set("X-Request-ID", reqID)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	n, err := io.Copy(w, br)
	if err != nil {
		logx.Error(h.Log, reqID, op, "stream interrupted", err, "id", id, "file_no", fileNo, "written", n)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "id", id, "file_no", fileNo, "bytes", n)
}
