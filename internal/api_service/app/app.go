package apiApp

import (
	"context"
	"github.com/andesco/odata-valet/deploy/config"
	"github.com/andesco/odata-valet/internal/api_service/adapter/api_client/valet"
	"github.com/andesco/odata-valet/internal/api_service/adapter/ratelimit"
	"github.com/andesco/odata-valet/internal/api_service/adapter/storage/redis"
	"github.com/andesco/odata-valet/internal/api_service/ports/http/public"
	"github.com/andesco/odata-valet/internal/api_service/service"
	"github.com/andesco/odata-valet/internal/logger"
	redisPack "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"log"
	"log/slog"
	"os"
)

type ApiApp struct {
	cfg   *config.Config
	redis *redis.Storage
}

func NewApiApp(cfg *config.Config) *ApiApp {
	return &ApiApp{cfg: cfg}
}

func (a *ApiApp) Start(ctx context.Context) <-chan struct{} {
	a.initLogger()
	slog.Info("Logger initialized")

	slog.Info("starting server",
		"port", a.cfg.HTTPServer.Port,
		"upstream", a.cfg.Upstream.URL,
		"rate_limit", a.cfg.RateLimit.Rate,
	)

	a.redis = a.initRedis(ctx)

	rateLimiter := a.initLimiter()

	apiService := a.initService()
	slog.Info("Service initialized")

	serverDone := a.StartServer(ctx, apiService, rateLimiter)
	slog.Info("server started", "addr", ":"+a.cfg.HTTPServer.Port)

	return serverDone
}

// Close releases the Redis connection, if any.
func (a *ApiApp) Close() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		slog.Error("Failed to close Redis client", "error", err)
	}
}

func (a *ApiApp) initLogger() {
	slog.SetDefault(logger.New(os.Stdout, a.cfg.Log.Level, a.cfg.Log.Format))
}

// initRedis connects only when REDIS_HOST is set; otherwise limits are kept in memory.
func (a *ApiApp) initRedis(ctx context.Context) *redis.Storage {
	if a.cfg.Redis.Host == "" {
		return nil
	}

	options := &redisPack.Options{
		Addr:     a.cfg.Redis.Host,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}

	rdStorage, err := redis.InitStorage(ctx, options)
	if err != nil {
		log.Fatalln("Failed to initialize Redis storage", "error", err)
	}
	slog.Info("Redis client initialized", "addr", a.cfg.Redis.Host)

	return rdStorage
}

func (a *ApiApp) initLimiter() *limiter.Limiter {
	if !a.cfg.RateLimit.Enabled {
		slog.Info("Rate limiting disabled")
		return nil
	}

	var store limiter.Store
	if a.redis != nil {
		s, err := a.redis.LimiterStore()
		if err != nil {
			log.Fatalln("Failed to initialize rate limit store", "error", err)
		}
		store = s
	}

	rateLimiter, err := ratelimit.New(a.cfg.RateLimit.Rate, store)
	if err != nil {
		log.Fatalln("Failed to initialize rate limiter", "error", err)
	}
	slog.Info("Rate limiter initialized", "rate", a.cfg.RateLimit.Rate, "shared", a.redis != nil)

	return rateLimiter
}

func (a *ApiApp) initService() *service.Service {
	client := valet.NewHTTPClient(a.cfg.Upstream.URL, valet.NewTransportClient())

	return service.NewService(client, service.WithTimeout(a.cfg.Upstream.Timeout))
}

func (a *ApiApp) StartServer(ctx context.Context, apiService *service.Service, rateLimiter *limiter.Limiter) <-chan struct{} {
	var opts []public.Option
	if rateLimiter != nil {
		opts = append(opts, public.WithLimiter(rateLimiter))
	}
	if a.redis != nil {
		opts = append(opts, public.WithPinger(a.redis))
	}

	return public.StartServer(ctx, apiService, a.cfg, opts...)
}
