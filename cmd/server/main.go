package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/auth"
	"github.com/scanvault/api/internal/client"
	"github.com/scanvault/api/internal/config"
	"github.com/scanvault/api/internal/handler"
	"github.com/scanvault/api/internal/logging"
	"github.com/scanvault/api/internal/middleware"
	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/internal/store"
	ws "github.com/scanvault/api/internal/websocket"
	"github.com/scanvault/api/internal/worker"
	"github.com/scanvault/api/pkg/response"
)

// @title          Scanvault API
// @version        1.0
// @description    Backend API for the Scanvault photogrammetry dashboard.
// @host           localhost:8000
// @BasePath       /
// @schemes        http https
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
// @description    Enter your bearer token in the format **Bearer &lt;token&gt;**
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logging.New(cfg.Server.LogLevel, cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		zlog.Warn("redis not available", zap.Error(err))
	}

	jobStore, err := store.Open(&cfg.Store, redisClient, zlog)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer jobStore.Close()
	zlog.Info("job store ready", zap.String("backend", cfg.Store.Backend))

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	validate := validator.New()

	hub := ws.NewHub(zlog)
	go hub.Run(ctx)

	kiriClient := client.NewKiriClient(&cfg.Kiri, zlog)
	if !kiriClient.IsConfigured() {
		zlog.Warn("KIRI API key not configured; vendor calls will be rejected")
	}
	if cfg.Kiri.WebhookSecret == "" {
		zlog.Warn("KIRI webhook secret not configured; webhook endpoint will answer 503")
	}

	// R2 archive is optional
	var archive client.ArchiveStore
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			zlog.Warn("R2 client not initialized", zap.Error(err))
		} else {
			archive = r2Client
		}
	} else {
		zlog.Info("R2 storage not configured, model mirroring disabled")
	}

	// Zitadel JWKS verifier is optional; session tokens always work
	var tokenVerifier auth.TokenVerifier
	if cfg.Zitadel.Issuer != "" {
		jwksVerifier, err := auth.NewJWKSVerifier(ctx, &cfg.Zitadel)
		if err != nil {
			zlog.Warn("JWKS verifier not initialized", zap.Error(err))
		} else {
			defer jwksVerifier.Close()
			tokenVerifier = jwksVerifier
		}
	}

	mirror := service.NewMirrorEnqueuer(asynqClient, zlog)
	reconciler := service.NewReconcileService(jobStore, kiriClient, zlog, hub, mirror)
	uploadService := service.NewUploadService(kiriClient, jobStore, zlog)
	jobService := service.NewJobService(jobStore, kiriClient, archive, zlog)
	accountService := service.NewAccountService(kiriClient)

	var apiAuth fiber.Handler
	if cfg.Gateway.Enabled {
		zlog.Info("gateway mode enabled, using header-based auth")
		apiAuth = middleware.GatewayAuthMiddleware()
	} else {
		apiAuth = middleware.NewAuthMiddleware(tokenVerifier, cfg.JWT.Secret).Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient, zlog)

	router := &handler.Router{
		Health: handler.NewHealthHandler(jobStore, map[string]bool{
			"kiri":    kiriClient.IsConfigured(),
			"webhook": cfg.Kiri.WebhookSecret != "",
			"r2":      archive != nil,
			"auth":    tokenVerifier != nil || cfg.JWT.Secret != "",
		}),
		Auth:        handler.NewAuthHandler(tokenVerifier, cfg.Admin, cfg.JWT, validate, zlog),
		Jobs:        handler.NewJobHandler(jobService, reconciler),
		Upload:      handler.NewUploadHandler(uploadService, validate),
		Account:     handler.NewAccountHandler(accountService),
		Webhook:     handler.NewWebhookHandler(reconciler, cfg.Kiri.WebhookSecret, cfg.Webhook.AckOnError, zlog),
		Hub:         hub,
		APIAuth:     apiAuth,
		UploadLimit: rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour),
		PollLimit:   rateLimiter.PollLimit(cfg.RateLimit.PollPerMin),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1024 * 1024 * 1024, // 1GB videos
	})

	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	router.Register(app)

	workerSrv := newWorkerServer(cfg, redisOpt, zlog)
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeArtifactMirror,
		worker.NewMirrorWorker(jobStore, kiriClient, archive, zlog).ProcessTask)
	mux.HandleFunc(service.TaskTypeSweep,
		worker.NewSweepWorker(jobStore, reconciler, cfg.Sweep.Concurrency, zlog).ProcessTask)
	if err := workerSrv.Start(mux); err != nil {
		return fmt.Errorf("start worker server: %w", err)
	}
	defer workerSrv.Shutdown()

	if cfg.Sweep.Enabled {
		scheduler, err := startSweepScheduler(cfg, redisOpt, zlog)
		if err != nil {
			return err
		}
		defer scheduler.Shutdown()
	}

	go func() {
		<-ctx.Done()
		zlog.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("server shutdown error", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Server.Port
	zlog.Info("server starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func newWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt, zlog *zap.Logger) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	switch strings.ToLower(cfg.Server.LogLevel) {
	case "debug":
		asynqLogLevel = asynq.DebugLevel
	case "warn":
		asynqLogLevel = asynq.WarnLevel
	case "error":
		asynqLogLevel = asynq.ErrorLevel
	}

	concurrency := cfg.Sweep.Concurrency + 4
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			service.QueueMirror: 6,
			service.QueueSweep:  4,
		},
		Logger:   zlog.Named("asynq").Sugar(),
		LogLevel: asynqLogLevel,
	})
}

func startSweepScheduler(cfg *config.Config, redisOpt asynq.RedisClientOpt, zlog *zap.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: zlog.Named("scheduler").Sugar(),
	})

	entryID, err := scheduler.Register(cfg.Sweep.Cron, asynq.NewTask(service.TaskTypeSweep, nil),
		asynq.Queue(service.QueueSweep),
		asynq.MaxRetry(0),
		asynq.Unique(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("register sweep %q: %w", cfg.Sweep.Cron, err)
	}
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}

	zlog.Info("sweep scheduled", zap.String("spec", cfg.Sweep.Cron), zap.String("entry_id", entryID))
	return scheduler, nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
