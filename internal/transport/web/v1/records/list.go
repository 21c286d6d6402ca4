package records

import (
	"net/http"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/EgorLis/my-records/internal/transport/web/logx"
	"github.com/EgorLis/my-records/internal/transport/web/mw"
	v1 "github.com/EgorLis/my-records/internal/transport/web/v1"
)

// List godoc
// @Summary     List records
// @Tags        records
// @Produce     json
// @Param       page     query int false "page number, from 1" default(1)
// @Param       pagesize query int false "page size" default(10)
// @Success     200 {object} domain.APIEnvelope{data=domain.RecordPage}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/records [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "records.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	q := r.URL.Query()
	page, err := positiveInt(q.Get("page"), defaultPage)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad page", err, "page", q.Get("page"))
		v1.WriteDomainError(w, r, err)
		return
	}
	size, err := positiveInt(q.Get("pagesize"), defaultPageSize)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad pagesize", err, "pagesize", q.Get("pagesize"))
		v1.WriteDomainError(w, r, err)
		return
	}

	total, err := h.Records.Count(r.Context())
	if err != nil {
		logx.Error(h.Log, reqID, op, "count failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	recs, err := h.Records.List(r.Context(), page, size)
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "page", page, "pagesize", size, "count", len(recs), "total", total)
	v1.WriteOKData(w, r, domain.RecordPage{
		TotalPages: (total + size - 1) / size,
		Data:       recs,
	})
}
