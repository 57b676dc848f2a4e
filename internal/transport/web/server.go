package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/mandirapp/daily-darshan/internal/config"
	"github.com/mandirapp/daily-darshan/internal/darshan"
	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1admin "github.com/mandirapp/daily-darshan/internal/transport/web/v1/admin"
	v1darshan "github.com/mandirapp/daily-darshan/internal/transport/web/v1/darshan"
	"github.com/mandirapp/daily-darshan/internal/transport/web/v1/health"
	v1temple "github.com/mandirapp/daily-darshan/internal/transport/web/v1/temple"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

// New wires the handlers and builds the HTTP server. staticDir is the local
// uploads root to serve under cfg.PublicPrefix; empty when blobs live in S3.
func New(logger *log.Logger, cfg *config.Config, repos Repos, auth AuthDeps,
	svc *darshan.Service, db health.Pinger, cache domain.Cache,
	storage domain.BlobStorage, loc *time.Location, staticDir string) *Server {

	sub := func(name string) *log.Logger {
		return log.New(logger.Writer(), logger.Prefix()+"["+name+"] ", logger.Flags())
	}

	healthHandler := &health.Handler{Log: sub("health"), DB: db, Cache: cache, Storage: storage}
	adminHandler := &v1admin.Handler{
		Log:      sub("admin"),
		Admins:   repos.Admins,
		Hasher:   auth.Hasher,
		Tokens:   auth.Tokens,
		TokenTTL: cfg.AuthTokenTTL,
	}
	templeHandler := &v1temple.Handler{
		Log:      sub("temple"),
		Temples:  repos.Temples,
		Cache:    cache,
		CacheTTL: cfg.TempleTTL,
	}
	darshanHandler := &v1darshan.Handler{
		Log:     sub("darshan"),
		Svc:     svc,
		Temples: repos.Temples,
		Loc:     loc,
	}

	srv := &http.Server{
		Addr: cfg.AppPort,
		Handler: newRouter(logger, healthHandler, adminHandler, templeHandler,
			darshanHandler, mw.AuthDeps{Tokens: auth.Tokens}, cfg.PublicPrefix, staticDir),
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

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
