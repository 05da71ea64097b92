package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chatsyncgo/internal/auth"
	"chatsyncgo/internal/config"
	"chatsyncgo/internal/database/db_client"
	"chatsyncgo/internal/database/schema"
	"chatsyncgo/internal/http/authhandler"
	"chatsyncgo/internal/http/chathandler"
	"chatsyncgo/internal/http/http_server"
	"chatsyncgo/internal/redis/redis_client"
	"chatsyncgo/internal/services/chat"
	"chatsyncgo/internal/services/user"
	"chatsyncgo/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (cross-instance event bus)
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client + schema
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	if err := schema.Apply(ctx, pgDb); err != nil {
		Log.Fatal("pg-schema", zap.Error(err))
	}

	// 5. Token verifier + services
	verifier := auth.NewVerifier(cfg.JwtSecret, time.Duration(cfg.TokenTtlDays)*24*time.Hour)
	userService := user.NewUserService(pgDb, verifier)
	chatService := chat.NewChatService(pgDb)

	// 6. WebSockets hub + server (room registry, presence, delivery bridge)
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, verifier, chatService)

	// 7. HTTP + WS server
	authHandler := authhandler.New(userService)
	chatHandler := chathandler.New(chatService, wsSrv.Bridge())
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, authHandler, chatHandler, verifier)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
