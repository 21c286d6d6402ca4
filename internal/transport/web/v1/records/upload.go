package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/EgorLis/my-records/internal/ingest"
	"github.com/EgorLis/my-records/internal/transport/web/logx"
	"github.com/EgorLis/my-records/internal/transport/web/mw"
	v1 "github.com/EgorLis/my-records/internal/transport/web/v1"
)

// Upload godoc
// @Summary     Upload records
// @Description Потоковый multipart: guid[i] + file1[i], file2[i], file3[i]. Параметры одной записи идут подряд.
// @Description Ответ: список сообщений о пропущенных/перезаписанных записях.
// @Tags        records
// @Accept      multipart/form-data
// @Produce     json
// @Param       guid[0]  formData string true "record id"
// @Param       file1[0] formData file   true "file 1"
// @Param       file2[0] formData file   true "file 2"
// @Param       file3[0] formData file   true "file 3"
// @Success     200 {object} domain.APIEnvelope{data=[]string}
// @Failure     400 {object} domain.APIEnvelope{data=[]string}
// @Failure     413 {object} domain.APIEnvelope{data=[]string}
// @Router      /api/records [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "records.upload"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "content_type", r.Header.Get("Content-Type"))

	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		logx.Error(h.Log, reqID, op, "not multipart", domain.ErrBadParams, "content_type", ct)
		v1.WriteBadParams(w, r, fmt.Sprintf("Expected a multipart request, but got %s", ct))
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		logx.Error(h.Log, reqID, op, "multipart reader", err)
		v1.WriteBadParams(w, r, fmt.Sprintf("Expected a multipart request, but got %s", ct))
		return
	}

	var diag ingest.Diagnostics
	red := ingest.NewReducer(h.Storage, h.Records, &diag, h.Log)

	var streamErr error
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		h.observe(r.Context(), red, &diag, part)
		_ = part.Close()
	}
	messages := red.Finish(r.Context())

	st := red.Stats()
	kv := []any{"saved", st.Saved, "overwritten", st.Overwritten, "skipped", st.Skipped, "failed", st.Failed, "messages", len(messages)}

	if streamErr != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(streamErr, &tooLarge) {
			logx.Error(h.Log, reqID, op, "body too large", streamErr, kv...)
			v1.WriteEnvelope(w, r, http.StatusRequestEntityTooLarge,
				domain.FailWithData(domain.ErrCodeBadParams, "request body too large", messages))
			return
		}
		logx.Error(h.Log, reqID, op, "multipart stream broken", streamErr, kv...)
		v1.WriteEnvelope(w, r, http.StatusBadRequest,
			domain.FailWithData(domain.ErrCodeBadParams, "invalid multipart stream", messages))
		return
	}

	logx.Info(h.Log, reqID, op, "done", kv...)
	v1.WriteOKData(w, r, messages)
}

// observe переводит часть multipart в ingest.Part.
// Части с неверным content-disposition в Reducer не попадают.
func (h *Handler) observe(ctx context.Context, red *ingest.Reducer, diag *ingest.Diagnostics, part *multipart.Part) {
	name := part.FormName()
	field, index, ok := ingest.ParsePartName(name)
	if !ok {
		diag.Unexpected(name)
		return
	}

	switch {
	case field == ingest.FieldGUID || field == ingest.FieldID:
		if part.FileName() != "" {
			diag.Addf("A form data content disposition is expected but was not provided for %s[%d].", field, index)
			return
		}
		limit := h.guidLimit()
		raw, err := io.ReadAll(io.LimitReader(part, limit+1))
		if err != nil {
			diag.Addf("Unable to parse %s[%d].", field, index)
			return
		}
		value := strings.TrimSpace(string(raw))
		if int64(len(raw)) > limit {
			// длинное значение не обрезаем: Reducer отклонит пустой guid
			value = ""
		}
		red.Observe(ctx, ingest.Part{Field: field, Index: index, Value: value})
	case ingest.IsFileField(field):
		if part.FileName() == "" {
			diag.Addf("A file content disposition is expected but was not provided for %s[%d].", field, index)
			return
		}
		red.Observe(ctx, ingest.Part{Field: field, Index: index, Body: part})
	default:
		red.Observe(ctx, ingest.Part{Field: field, Index: index, Body: part})
	}
}
