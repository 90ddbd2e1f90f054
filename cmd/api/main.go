package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"chatline/internal/chat"
	"chatline/internal/config"
	"chatline/internal/db"
	apihttp "chatline/internal/http"
	"chatline/internal/repository"
	"chatline/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.InitSchema(ctx, pool); err != nil {
		logger.Fatal("db schema init", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	var loginLimiter service.LoginRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, cfg.LoginRateWindow, cfg.LoginRateMax)
		}
		cancel()
	}
	if loginLimiter == nil {
		loginLimiter = service.NewLoginRateLimiter(cfg.LoginRateWindow, cfg.LoginRateMax)
	}

	userSvc := service.NewUserService(logger, userRepo, loginLimiter)
	sessionSvc := service.NewSessionService(logger, sessionRepo, cfg.SessionTTL)
	messageSvc := service.NewMessageService(messageRepo)

	sessionSvc.SweepExpired(ctx)

	registry := chat.NewRegistry(logger)
	registry.SetListener(chat.NewPublisher(logger, registry))
	chatRouter := chat.NewRouter(logger, registry, messageRepo)

	userHandler := apihttp.NewUserHandler(logger, userSvc, sessionSvc)
	chatHandler := apihttp.NewChatHandler(logger, userSvc, messageSvc, registry, cfg.HistoryLimit)
	wsHandler := apihttp.NewWSHandler(logger, sessionSvc, registry, chatRouter)
	router := apihttp.NewRouter(logger, sessionSvc, userHandler, chatHandler, wsHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
