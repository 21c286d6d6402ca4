package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/my-records/internal/config"
	"github.com/EgorLis/my-records/internal/transport/web/v1/blob"
	"github.com/EgorLis/my-records/internal/transport/web/v1/health"
	"github.com/EgorLis/my-records/internal/transport/web/v1/records"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(logger *log.Logger, cfg *config.Config, deps Deps) *Server {
	healthLog := log.New(logger.Writer(), logger.Prefix()+"[health] ", logger.Flags())
	recordsLog := log.New(logger.Writer(), logger.Prefix()+"[records] ", logger.Flags())
	blobLog := log.New(logger.Writer(), logger.Prefix()+"[blob] ", logger.Flags())

	rh := &records.Handler{
		Log:          recordsLog,
		Records:      deps.Records,
		Storage:      deps.Storage,
		GUIDMaxBytes: cfg.GUIDMaxBytes,
	}
	hs := handlers{
		health:  &health.Handler{Log: healthLog, DB: deps.Records, Storage: deps.Storage, Cache: deps.Cache},
		records: rh,
		blob:    &blob.Handler{Log: blobLog, Storage: deps.Storage},
	}

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           newRouter(hs, cfg.UploadMaxBytes, logger),
		ReadTimeout:       5 * time.Minute, // потоковая загрузка больших файлов
		WriteTimeout:      5 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

// Handler: для тестов через httptest
func (ws *Server) Handler() http.Handler { return ws.server.Handler }

func (ws *Server) Run() {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Fatalf("error: %v", err)
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}
