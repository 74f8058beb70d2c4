package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	configs "github.com/ahlanjobb/api/config"
	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/internal/handler"
	"github.com/ahlanjobb/api/internal/middleware"
	"github.com/ahlanjobb/api/internal/repository"
	"github.com/ahlanjobb/api/internal/router"
	"github.com/ahlanjobb/api/internal/service"
	"github.com/ahlanjobb/api/pkg/circuit"
	"github.com/ahlanjobb/api/pkg/database"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/ahlanjobb/api/pkg/mailer"
	"github.com/ahlanjobb/api/pkg/metrics"
	"github.com/ahlanjobb/api/pkg/queue"
	"github.com/ahlanjobb/api/pkg/redis"
	"github.com/ahlanjobb/api/pkg/storage"
	"github.com/ahlanjobb/api/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.GetLogger()
	log.Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validation.RegisterWithGin(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	db, err := database.NewPostgresDB(context.Background(), database.ConfigFrom(config))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrated successfully")

	if err := database.Seed(db, database.DefaultAdmin{
		FirstName: "Admin",
		LastName:  "Ahlanjobs",
		Email:     config.Auth.AdminEmail,
		Password:  config.Auth.AdminPassword,
		Cost:      config.Auth.SaltWorkFactor,
	}); err != nil {
		// Don't fail - the admin may already exist
		log.Error("Failed to seed database", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	// Email delivery: SMTP behind a circuit breaker, fed by the Redis queue
	// when Redis is available and inline otherwise.
	renderer, err := mailer.NewRenderer()
	if err != nil {
		log.Fatal("Failed to parse email templates", zap.Error(err))
	}
	breaker := circuit.NewBreaker("smtp", circuit.DefaultConfig(), log,
		circuit.OnStateChange(func(name string, from, to circuit.State) {
			metrics.CircuitState.WithLabelValues(name).Set(float64(to))
		}),
	)
	sender := mailer.NewBreakerSender(mailer.NewSMTPSender(config.SMTP), breaker, log)
	sendEmail := mailer.JobHandler(renderer, sender, config.App.Name)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	var (
		redisClient *redis.Client
		emailQueue  *queue.RedisQueue
		inline      *queue.InlineDispatcher
		dispatcher  queue.Dispatcher
	)
	if config.Redis.Enabled {
		redisClient, err = redis.NewClient(config)
		if err != nil {
			log.Warn("Redis unavailable, sending emails inline", zap.Error(err))
		}
	}
	if redisClient != nil {
		defer redisClient.Close()

		emailQueue, err = queue.NewRedisQueue(redisClient.Raw(), constants.RedisKeyQueue, config.Queue.Name)
		if err != nil {
			log.Fatal("Failed to create email queue", zap.Error(err))
		}
		dispatcher = emailQueue

		worker := queue.NewWorker(emailQueue, sendEmail, config.Queue.MaxRetry, config.Queue.PollTimeout, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			worker.Run(workerCtx)
		}()
	} else {
		inline = queue.NewInlineDispatcher(sendEmail, log)
		dispatcher = inline
	}

	// Object storage
	var objects storage.ObjectStorage
	if config.Storage.AccessKeyID == "" {
		log.Warn("No storage credentials configured, keeping uploads in memory")
		objects = storage.NewMemoryStorage(config.App.BaseURL + "/uploads")
	} else {
		s3Storage, err := storage.NewS3Storage(config.Storage)
		if err != nil {
			log.Fatal("Failed to configure object storage", zap.Error(err))
		}
		objects = s3Storage
	}

	// Services
	tokens := service.NewTokenService(config.Auth)
	hasher := service.NewPasswordHasher(config.Auth.SaltWorkFactor)
	notifier := service.NewNotificationService(dispatcher, config.App.ClientURL, config.App.Name)
	authenticator := service.NewAuthenticator(tokens, userRepo)

	authService, err := service.NewAuthService(userRepo, tokens, hasher, notifier, authenticator)
	if err != nil {
		log.Fatal("Failed to initialize auth service", zap.Error(err))
	}
	authService.WithAssertionVerifier(service.NewAssertionVerifier(config.Auth.OAuthAssertionSecret))
	userService := service.NewUserService(userRepo, tokens, hasher, notifier)
	mediaService := service.NewMediaService(mediaRepo, objects)

	// Handlers
	var queueInspector handler.QueueInspector
	if emailQueue != nil {
		queueInspector = emailQueue
	}
	healthHandler := handler.NewHealthHandler(db, redisClient, queueInspector, breaker)

	r := router.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		handler.NewMediaHandler(mediaService),
		healthHandler,

		middleware.NewAuthMiddleware(authenticator),
		middleware.NewValidationMiddleware(),
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	stopWorker()
	workers.Wait()
	if inline != nil {
		inline.Wait()
	}
	log.Info("Server exited")
}
