package web

import (
	"log"
	"net/http"
	"strings"

	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1admin "github.com/mandirapp/daily-darshan/internal/transport/web/v1/admin"
	v1darshan "github.com/mandirapp/daily-darshan/internal/transport/web/v1/darshan"
	"github.com/mandirapp/daily-darshan/internal/transport/web/v1/health"
	v1temple "github.com/mandirapp/daily-darshan/internal/transport/web/v1/temple"
)

func newRouter(logger *log.Logger, hh *health.Handler, ah *v1admin.Handler,
	th *v1temple.Handler, dh *v1darshan.Handler, auth mw.AuthDeps,
	publicPrefix, staticDir string) http.Handler {

	mux := http.NewServeMux()
	guard := func(h http.HandlerFunc) http.Handler { return mw.RequireAuth(auth, h) }

	// health
	mux.HandleFunc("GET /api/healthz", hh.Liveness)
	mux.HandleFunc("GET /api/readyz", hh.Readiness)

	// public catalog + darshan retrieval
	mux.HandleFunc("GET /api/temples", th.List)
	mux.HandleFunc("GET /api/temples/{id}", th.GetOne)
	mux.HandleFunc("GET /api/darshan/{templeId}", dh.Get)

	// admin
	mux.HandleFunc("POST /api/admin/login", ah.Login)
	mux.Handle("POST /api/admin/temples", guard(th.Create))
	mux.Handle("PUT /api/admin/temples/{id}", guard(th.Update))
	mux.Handle("DELETE /api/admin/temples/{id}", guard(th.Delete))
	mux.Handle("POST /api/admin/darshan", guard(limitBody(64<<20, dh.Upload)))
	mux.Handle("DELETE /api/admin/darshan/image", guard(dh.DeleteImage))

	// uploaded images, only when blobs live on local disk
	if staticDir != "" {
		prefix := strings.TrimSuffix(publicPrefix, "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(staticDir))))
	}

	return mw.WithRequestID(mw.Logging(logger)(mux))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
