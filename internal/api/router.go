package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/matheus3301/guestbook/internal/config"
	"github.com/matheus3301/guestbook/internal/status"
	"go.uber.org/zap"
)

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status status.State `json:"status"`
}

// NewRouter mounts the entry collection under cfg.BasePath. /healthz answers
// 503 until health reports Serving; a nil machine is treated as always serving.
func NewRouter(s Store, health *status.Machine, cfg config.Server, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := NewEntryService(s, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			render.JSON(w, r, HealthResponse{Status: status.Serving})
			return
		}
		if !health.Ready() {
			render.Status(r, http.StatusServiceUnavailable)
		}
		render.JSON(w, r, HealthResponse{Status: health.Current()})
	})

	base := "/" + strings.Trim(cfg.BasePath, "/")
	r.Route(base, func(r chi.Router) {
		r.Get("/", svc.HandleList)
		r.Post("/", svc.HandleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", svc.HandleReplace)
			r.Delete("/", svc.HandleDelete)
		})
	})
	return r
}

// corsOptions allows the configured origins, or any loopback origin when
// none are configured.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		MaxAge:         300,
	}
	if len(origins) > 0 {
		opts.AllowedOrigins = origins
		return opts
	}
	opts.AllowOriginFunc = func(_ *http.Request, origin string) bool {
		parsed, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return false
		}
		switch parsed.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
		return false
	}
	return opts
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.EscapedPath()),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
