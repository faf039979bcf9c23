package statusapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/scene"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
)

// NewRouter builds the read-only status/health/metrics HTTP handler. reg
// may be nil, in which case /metrics reports an empty registry rather than
// panicking - metrics collection is optional per internal/config.
func NewRouter(sc *scene.Scene, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	h := newHandler(sc)
	r.Get("/healthz", h.Liveness)
	r.Get("/status", h.Status)

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/healthz", http.StatusTemporaryRedirect)
	})

	return r
}

func isHealthPath(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/status")
}

// requestLogger mirrors the teacher's custom chi middleware: requests are
// logged at INFO, healthcheck/status polling at DEBUG to avoid flooding
// logs under a polling status client.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("statusapi request completed", logArgs...)
		} else {
			logger.Info("statusapi request completed", logArgs...)
		}
	})
}
