package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ton_mining_miniapp/internal/api"
	"ton_mining_miniapp/internal/cache"
	"ton_mining_miniapp/internal/middleware"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/internal/service"
	"ton_mining_miniapp/internal/tonconnect"
	"ton_mining_miniapp/internal/walletbridge"
	"ton_mining_miniapp/pkg/auth"
	"ton_mining_miniapp/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	feed := repository.NewFeed(repo.DSN())
	defer feed.Close()

	redisCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer redisCache.Close()

	var notifier interface {
		service.Notifier
		service.AvatarSource
	} = service.NopNotifier{}
	if cfg.TelegramAuth.TelegramBotToken != "" {
		bot, err := service.NewBotNotifier(service.BotConfig{
			BotToken: cfg.TelegramAuth.TelegramBotToken,
			Debug:    cfg.TelegramAuth.DebugMode,
			AppURL:   cfg.TelegramAuth.AppURL,
		})
		if err != nil {
			zapLogger.Error("Bot unavailable, notifications disabled", zap.Error(err))
		} else {
			notifier = bot
			go bot.Listen(ctx)
		}
	}

	userService := service.NewUserService(repo, cfg.Links)

	hub := walletbridge.NewHub(userService.SetWalletAddress)

	transfers := tonconnect.NewClient(hub, hub, cfg.Wallet.Limits, tonconnect.WithTTL(cfg.Wallet.RequestTTL))

	walletService := service.NewWalletService(repo, redisCache, transfers, hub, notifier, cfg.Wallet.TreasuryAddress)
	missionService := service.NewMissionService(repo, notifier)
	giveawayService := service.NewGiveawayService(repo, notifier)
	miningService := service.NewMiningService(repo)
	rouletteService := service.NewRouletteService(repo)
	realtimeService := service.NewRealtimeService(feed, hub, redisCache)

	go func() {
		if err := realtimeService.Run(ctx); err != nil {
			zapLogger.Error("Realtime updates stopped", zap.Error(err))
		}
	}()
	go giveawayService.RunAdvancer(ctx, cfg.Giveaways.AdvanceInterval)

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	authorization := middleware.NewAuthorization(userService)
	rateLimiter := middleware.NewRateLimiter(redisCache, cfg.RateLimit)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := repo.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, walletService, notifier, telegramAuth)
	api.NewWalletRoutes(a, walletService, telegramAuth, rateLimiter, authorization)
	api.NewMissionRoutes(a, missionService, telegramAuth)
	api.NewGiveawayRoutes(a, giveawayService, telegramAuth, authorization)
	api.NewMiningRoutes(a, miningService, telegramAuth, rateLimiter)
	api.NewRouletteRoutes(a, rouletteService, telegramAuth)
	api.NewWalletBridgeRoutes(a, hub.ServeWS, telegramAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
