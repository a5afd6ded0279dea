package public

import (
	"context"
	"errors"
	"github.com/andesco/odata-valet/deploy/config"
	"github.com/andesco/odata-valet/internal/api_service/metrics"
	mwLogger "github.com/andesco/odata-valet/internal/api_service/ports/http/public/middleware/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Server struct {
	Server  *http.Server
	cfg     *config.Config
	service Service
	limiter *limiter.Limiter
	pinger  Pinger
}

type Option func(s *Server)

// WithLimiter rate limits the data endpoints.
func WithLimiter(l *limiter.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithPinger adds a dependency check to /healthz.
func WithPinger(p Pinger) Option {
	return func(s *Server) {
		s.pinger = p
	}
}

func NewServer(service Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = &http.Server{
		Addr:         ":" + cfg.HTTPServer.Port,
		Handler:      s.routes(),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return s
}

func StartServer(ctx context.Context, service Service, cfg *config.Config, opts ...Option) <-chan struct{} {
	server := NewServer(service, cfg, opts...)

	doneChan := make(chan struct{})

	go func() {
		if err := server.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to stop server", "error", err)
		}

		close(doneChan)
	}()

	return doneChan
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwLogger.New())
	r.Use(middleware.Recoverer)
	r.Use(allowAnyOrigin)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(preflight)
	r.Use(instrument)

	r.NotFound(s.NotFound)

	r.Get("/healthz", s.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(stdlib.NewMiddleware(s.limiter,
				stdlib.WithLimitReachedHandler(limitReached),
				stdlib.WithErrorHandler(limiterFailed),
			).Handler)
		}

		r.Get("/", s.Root)
		r.Get("/$metadata", s.Metadata)
		r.Get("/ExchangeRates", s.ExchangeRates)
		r.Get("/ExchangeRates/", s.ExchangeRates)
	})

	return r
}

func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.HTTPServer.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.HTTPServer.PublicBaseURL, "/")
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}

func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// preflight answers OPTIONS requests that are not CORS preflights on any path.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
	})
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		metrics.Responses.WithLabelValues(endpoint, strconv.Itoa(ww.Status())).Inc()
	})
}

func limitReached(w http.ResponseWriter, r *http.Request) {
	slog.Warn("rate limit exceeded", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	RespondWithError(w, http.StatusTooManyRequests, codeRateLimited, "Too many requests. Please try again later.")
}

func limiterFailed(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("rate limit check failed", "error", err)
	RespondWithError(w, http.StatusInternalServerError, codeInternal, "rate limit check failed")
}
