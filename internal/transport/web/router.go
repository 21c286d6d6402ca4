package web

import (
	"log"
	"net/http"

	_ "github.com/EgorLis/my-records/internal/docs"
	"github.com/EgorLis/my-records/internal/transport/web/mw"
	"github.com/EgorLis/my-records/internal/transport/web/v1/blob"
	"github.com/EgorLis/my-records/internal/transport/web/v1/health"
	"github.com/EgorLis/my-records/internal/transport/web/v1/records"
	httpSwagger "github.com/swaggo/http-swagger"
)

type handlers struct {
	health  *health.Handler
	records *records.Handler
	blob    *blob.Handler
}

func newRouter(hs handlers, uploadLimit int64, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /v1/healthz", hs.health.Liveness)
	mux.HandleFunc("GET /v1/readyz", hs.health.Readiness)

	// records
	mux.HandleFunc("POST /api/records", limitBody(uploadLimit, hs.records.Upload))
	mux.HandleFunc("GET /api/records", hs.records.List)
	mux.HandleFunc("GET /api/records/{id}/{fileNo}", hs.records.GetFile)
	mux.HandleFunc("DELETE /api/records/{id}", hs.records.Delete)

	// blob
	mux.HandleFunc("GET /v1/blob/{key}", hs.blob.Get)
	mux.HandleFunc("DELETE /v1/blob/{key}", hs.blob.Delete)

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(mux))
}

// limitBody: n <= 0: без лимита
func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	if n <= 0 {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
