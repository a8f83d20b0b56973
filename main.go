package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"hostel-booking/cmd"
	"hostel-booking/internal/data/repository"
	"hostel-booking/internal/notify"
	"hostel-booking/internal/wire"
	"hostel-booking/migrations"
	"hostel-booking/pkg/database"
	"hostel-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db, migrations.FS)
		if err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Migrations applied", zap.Strings("files", applied))
	}

	// Redis is optional
	rdb, err := database.InitRedis(config.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, rate limiting and chat notifications disabled", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info("Redis connected successfully", zap.String("addr", config.Redis.Addr))
	}

	// Notification sinks
	sinks := []notify.Sink{notify.NewLogSink(logger)}
	if config.Notify.AMQPURL != "" {
		sinks = append(sinks, notify.NewAMQPSink(config.Notify.AMQPURL, config.Notify.Queue, logger))
	}
	if rdb != nil {
		sinks = append(sinks, notify.NewRedisSink(rdb, config.Notify.Channel))
	}
	dispatcher := notify.NewDispatcher(sinks, config.Notify.Buffer, config.Notify.Timeout, logger)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logger.Warn("Failed to close notification sinks", zap.Error(err))
		}
	}()

	// Initialize all repositories
	repos := repository.NewRepository(db, config.Database.LockTimeout, logger)

	// Wire all dependencies
	app := wire.Wiring(wire.Deps{
		Repo:     repos,
		Notifier: dispatcher,
		Redis:    rdb,
		Config:   config,
		Logger:   logger,
	})

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
		return
	}

	logger.Info("Server stopped")
}
