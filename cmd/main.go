package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/bonmwang/Ajali-Incident-App/internal/cleanup"
	"github.com/bonmwang/Ajali-Incident-App/internal/config"
	v1 "github.com/bonmwang/Ajali-Incident-App/internal/handler/http/v1"
	"github.com/bonmwang/Ajali-Incident-App/internal/repository"
	"github.com/bonmwang/Ajali-Incident-App/internal/service"
	"github.com/bonmwang/Ajali-Incident-App/internal/storage"
	"github.com/bonmwang/Ajali-Incident-App/pkg/logger"
	"github.com/bonmwang/Ajali-Incident-App/pkg/postgres"
	redisclient "github.com/bonmwang/Ajali-Incident-App/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/bonmwang/Ajali-Incident-App/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Ajali Incident API
// @version 1.0
// @description Incident reporting service with user accounts and image attachments.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Инициализация файлового хранилища изображений
	imageStore, err := storage.NewStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}

	// Инициализация издателя событий на удаление файлов
	reclaimPublisher := cleanup.NewRedisReclaimPublisher(redisClient)

	// Инициализация и запуск воркера удаления осиротевших файлов
	reclaimWorker := cleanup.NewReclaimWorker(redisClient, imageStore, log, cfg)
	reclaimWorker.Start(ctx)

	// Инициализация репозиториев
	userRepo := repository.NewUserRepository(dbpool)
	incidentRepo := repository.NewIncidentRepository(dbpool, redisClient)
	tokenDenylist := repository.NewTokenDenylist(redisClient)

	// Инициализация сервисов
	tokenManager := service.NewTokenManager(cfg, tokenDenylist)
	authService := service.NewAuthService(userRepo, tokenManager, log)
	incidentService := service.NewIncidentService(incidentRepo, imageStore, reclaimPublisher, log)

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, authService, tokenManager, imageStore, log)

	// Настройка Gin роутера
	router := gin.Default()

	// CORS: мобильный и веб-клиенты ходят с других origin
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	handler.RegisterRoutes(router.Group("/"))

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
