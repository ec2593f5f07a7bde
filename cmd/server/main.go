package main

// @title           Chat Relay API
// @version         1.0
// @description     Real-time chat backend with websocket multiplexing
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/internal/adapters/kafka"
	"chat-relay/internal/api/routes"
	"chat-relay/internal/config"
	"chat-relay/internal/database"
	"chat-relay/internal/realtime"
	"chat-relay/internal/repositories/mysql"
	"chat-relay/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	slog.Info("Starting chat relay")

	db, err := database.NewMySQLConnection(cfg.MySQL.DSN)
	if err != nil {
		slog.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	minioClient, err := database.NewMinIOClient(&cfg.MinIO)
	if err != nil {
		slog.Error("Failed to connect to MinIO", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := mysql.NewUserRepository(db)
	chatRepo := mysql.NewChatRepository(db)
	messageRepo := mysql.NewMessageRepository(db)
	attachmentRepo := mysql.NewAttachmentRepository(db)
	stateRepo := mysql.NewChatStateRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	chatService := services.NewChatService(chatRepo, userRepo, messageRepo, attachmentRepo, stateRepo)
	userService := services.NewUserService(userRepo)
	redisService := services.NewRedisService(redisClient)
	fileService := services.NewFileService(minioClient, attachmentRepo)

	hubOpts := []realtime.HubOption{
		realtime.WithPresenceMirror(redisService),
	}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			slog.Error("Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		hubOpts = append(hubOpts, realtime.WithEventPublisher(producer))
	}

	hub := realtime.NewHub(logger, authService, chatService, chatService, chatService, hubOpts...)

	router := routes.NewRouter(
		hub,
		authService,
		chatService,
		userService,
		fileService,
		redisService,
		cfg.JWT.Secret,
	)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exited")
}
