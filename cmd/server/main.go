package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"classroom_service/config"
	"classroom_service/internal/cache"
	"classroom_service/internal/domain"
	"classroom_service/internal/handler"
	"classroom_service/internal/middleware"
	"classroom_service/internal/repository"
	"classroom_service/internal/seed"
	"classroom_service/internal/service"
	"classroom_service/internal/storage"
	"classroom_service/pkg/db"
	"classroom_service/pkg/kafka"
	"classroom_service/pkg/logging"
	"classroom_service/pkg/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	logger := logging.New(zapLogger)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(ctx, "cannot load config", zap.Error(err))
	}

	pg, err := db.NewPostgres(db.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		logger.Fatal(ctx, "cannot connect to database", zap.Error(err))
	}
	defer func() { _ = pg.Close() }()

	userRepo := repository.NewUserRepository(pg.DB())
	lessonRepo := repository.NewLessonRepository(pg.DB())
	assignmentRepo := repository.NewAssignmentRepository(pg.DB())
	submissionRepo := repository.NewSubmissionRepository(pg.DB())

	if cfg.Seed.Enabled {
		if err := seed.Run(ctx, userRepo, lessonRepo, cfg.Auth.BcryptCost); err != nil {
			logger.Fatal(ctx, "cannot seed demo data", zap.Error(err))
		}
		logger.Info(ctx, "demo data seeded")
	}

	screenshotStore, err := storage.NewLocalStore(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatal(ctx, "cannot init upload storage", zap.Error(err))
	}

	var producer service.EventProducer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
		if err != nil {
			logger.Fatal(ctx, "cannot create kafka producer", zap.Error(err))
		}
		defer func() { _ = kafkaProducer.Close() }()
		producer = kafkaProducer
	}

	var lessonCache handler.Cache
	if cfg.Redis.Addr != "" {
		redisConn := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer func() { _ = redisConn.Close() }()
		lessonCache = cache.NewRedisCache(redisConn)
	}

	tokenManager := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authService := service.NewAuthService(userRepo, tokenManager)
	homeworkService := service.NewHomeworkService(
		userRepo,
		lessonRepo,
		assignmentRepo,
		submissionRepo,
		screenshotStore,
		producer,
	)

	authHandler := handler.NewAuthHandler(authService)
	studentHandler := handler.NewStudentHandler(homeworkService)
	teacherHandler := handler.NewTeacherHandler(homeworkService, lessonCache, cfg.Redis.LessonTTL)

	authMiddleware := middleware.NewAuthMiddleware(tokenManager, userRepo)

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, 10<<20) // 10 MB
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = fmt.Fprintf(w, `{"status":"healthy","timestamp":%q}`, time.Now().UTC().Format(time.RFC3339))
		})

		r.Route("/auth", func(r chi.Router) {
			authHandler.RegisterRoutes(r)
		})
		r.Route("/student", func(r chi.Router) {
			studentHandler.RegisterRoutes(r, authMiddleware, middleware.RequireRole(domain.RoleStudent))
		})
		r.Route("/teacher", func(r chi.Router) {
			teacherHandler.RegisterRoutes(r, authMiddleware, middleware.RequireRole(domain.RoleTeacher))
		})
	})

	if producer != nil {
		worker := NewReminderWorker(
			assignmentRepo,
			producer,
			logger,
			cfg.Kafka.ReminderInterval,
			cfg.Kafka.ReminderWindow,
		)
		go worker.Start(ctx)
	}

	port := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:    port,
		Handler: r,
	}

	go func() {
		logger.Info(ctx, "starting server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "cannot start http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server forced to shutdown", zap.Error(err))
	}
	logger.Info(ctx, "server stopped")
}
