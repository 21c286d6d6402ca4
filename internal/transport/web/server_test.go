package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/my-records/internal/config"
	"github.com/EgorLis/my-records/internal/infra/database/memory"
	fsstorage "github.com/EgorLis/my-records/internal/infra/storage/fs"
)

func newTestServer(t *testing.T, uploadLimit int64) http.Handler {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	store, err := fsstorage.New(fsstorage.Config{Root: t.TempDir()}, logger)
	require.NoError(t, err)

	cfg := &config.Config{AppPort: ":0", UploadMaxBytes: uploadLimit, GUIDMaxBytes: 128}
	srv := New(logger, cfg, Deps{Records: memory.NewRepo(logger), Storage: store})
	return srv.Handler()
}

func uploadBody(t *testing.T, guid string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("guid[0]", guid))
	for _, name := range []string{"file1[0]", "file2[0]", "file3[0]"} {
		fw, err := w.CreateFormFile(name, name+".bin")
		require.NoError(t, err)
		_, _ = fw.Write(bytes.Repeat([]byte("x"), size))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestRoutes(t *testing.T) {
	h := newTestServer(t, 1<<20)
	const guid = "11111111-1111-1111-1111-111111111111"

	body, ct := uploadBody(t, guid, 10)
	req := httptest.NewRequest(http.MethodPost, "/api/records", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	for path, status := range map[string]int{
		"/v1/healthz":                 http.StatusOK,
		"/v1/readyz":                  http.StatusOK,
		"/api/records":                http.StatusOK,
		"/api/records/" + guid + "/1": http.StatusOK,
		"/swagger/doc.json":           http.StatusOK,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, rec.Code, path)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/records", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUploadLimit(t *testing.T) {
	h := newTestServer(t, 4<<10)

	body, ct := uploadBody(t, "11111111-1111-1111-1111-111111111111", 8<<10)
	req := httptest.NewRequest(http.MethodPost, "/api/records", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var env struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&env))
	assert.NotEmpty(t, env.Data)
}
