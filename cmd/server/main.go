package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/benbeisheim/chess-backend/internal/analysis"
	"github.com/benbeisheim/chess-backend/internal/config"
	"github.com/benbeisheim/chess-backend/internal/controller"
	"github.com/benbeisheim/chess-backend/internal/logging"
	"github.com/benbeisheim/chess-backend/internal/middleware"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	engine := newEngine(cfg.Engine, logger)
	defer engine.Close()

	// Initialize services
	gameManager := service.NewGameManager(service.ManagerConfig{
		Session: service.SessionConfig{
			InitialSeconds: cfg.Game.InitialSeconds,
			Rules:          model.Rules{GuardCastlingPath: cfg.Game.GuardCastlingPath},
			PreRoll:        time.Duration(cfg.Game.PreRollSeconds) * time.Second,
			TickInterval:   cfg.Game.TickInterval.Duration,
			ReplyDelay:     cfg.Engine.ReplyDelay.Duration,
			MoveTimeout:    cfg.Engine.MoveTimeout.Duration,
		},
		DefaultDifficulty:   cfg.Engine.Difficulty,
		MatchmakingInterval: cfg.Game.MatchmakingInterval.Duration,
		FinishedTTL:         cfg.Game.FinishedTTL.Duration,
	}, engine, logger)
	defer gameManager.Close()
	gameService := service.NewGameService(gameManager)

	// Initialize controllers
	gameController := controller.NewGameController(gameService, logger)
	wsController := controller.NewWebSocketController(gameService, logger)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestLogger(logger))

	// Set up WebSocket routes
	wsConfig := websocket.Config{
		ReadBufferSize:  cfg.Server.ReadBufferSize,
		WriteBufferSize: cfg.Server.WriteBufferSize,
		Origins:         strings.Split(cfg.Server.AllowOrigins, ","),
	}
	wsRoutes := app.Group("/ws", middleware.EnsurePlayerID(logger))
	wsRoutes.Get("/matchmaking", middleware.WebSocketUpgrade(), websocket.New(wsController.HandleMatchmaking, wsConfig))
	wsRoutes.Get("/game/:gameId", middleware.WebSocketUpgrade(), websocket.New(wsController.HandleConnection, wsConfig))

	// Set up REST routes
	api := app.Group("/api", middleware.EnsurePlayerID(logger))
	gameController.Register(api.Group("/game"))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.Server.Addr))
	if err := app.Listen(cfg.Server.Addr); err != nil {
		logger.Error("listen", zap.Error(err))
	}
}

// newEngine prefers an external UCI engine and falls back to the built-in
// greedy player when none is configured or it cannot be started.
func newEngine(cfg config.EngineConfig, logger *zap.Logger) analysis.Suggester {
	greedy := analysis.NewGreedy(time.Now().UnixNano())
	if cfg.Path == "" {
		logger.Info("using built-in engine")
		return greedy
	}

	uci, err := analysis.NewUCIEngine(analysis.UCIConfig{
		Path:    cfg.Path,
		Threads: cfg.Threads,
		HashMB:  cfg.HashMB,
	}, logger)
	if err != nil {
		logger.Warn("uci engine unavailable, using built-in engine", zap.String("path", cfg.Path), zap.Error(err))
		return greedy
	}
	return &analysis.Fallback{Primary: uci, Secondary: greedy, Logger: logger}
}
