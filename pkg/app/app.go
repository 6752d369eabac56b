// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/worksheethub/pkg/api"
	"github.com/yeisme/worksheethub/pkg/cache"
	"github.com/yeisme/worksheethub/pkg/configs"
	"github.com/yeisme/worksheethub/pkg/internal/jobs"
	"github.com/yeisme/worksheethub/pkg/internal/storage"
	"github.com/yeisme/worksheethub/pkg/log"
	"github.com/yeisme/worksheethub/pkg/metrics"
	"github.com/yeisme/worksheethub/pkg/middleware"
	"github.com/yeisme/worksheethub/pkg/scheduler"
	"github.com/yeisme/worksheethub/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Engine  *gin.Engine
	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
}

// NewApp 按顺序初始化配置、日志、追踪、指标、存储与定时任务，并组装路由.
func NewApp(configPath string) (*App, error) {
	ctx := contextPkg.Background()

	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	config := configs.GetConfig()
	log.Init()

	l := log.Logger()

	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	l.Warn().Msg("user passwords are stored and compared in plaintext; do not expose this service beyond a trusted network")

	if !config.Auth.EnforceAdmin {
		l.Warn().Msg("auth.enforce_admin is off; every client may modify the catalog")
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(ctx, sched, manager, config); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.MaxMultipartMemory = 32 << 20

	// 资源文件多为已压缩的图片与 PDF
	noGzip := []string{"/uploads/"}
	if config.Metrics.Path != "" {
		noGzip = append(noGzip, config.Metrics.Path)
	}

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server, config.Auth),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths(noGzip)),
		middleware.TracingMiddleware(),
	)

	if config.Metrics.Enabled {
		engine.Use(middleware.PrometheusMiddleware())
	}

	engine.Use(
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
		middleware.RoleMiddleware(config.Auth.RoleHeader),
		middleware.AuthMiddleware(config.Auth),
	)

	metrics.Register(config.Metrics, engine)

	opts := api.Options{AdminOnly: config.Auth.EnforceAdmin, CacheTTL: config.Cache.TTL}
	if config.Cache.Enabled && manager.GetKVClient() != nil {
		opts.ResponseCache = cache.NewCache(manager.GetKVClient(), config.Cache.Prefix)
	}

	api.RegisterGroup(engine, opts)

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		sched:   sched,
	}, nil
}

// Run 启动调度器与 HTTP 服务，收到 SIGINT/SIGTERM 后优雅退出.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(contextPkg.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := log.Logger()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	a.sched.Start()

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Str("origin", a.config.Server.Origin()).Msg("HTTP server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		l.Info().Msg("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(
		runErr,
		srv.Shutdown(shutdownCtx),
		a.sched.Shutdown(),
		a.manager.Close(),
		tracing.ShutdownTracer(shutdownCtx),
	)
}
