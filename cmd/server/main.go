package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/MicahParks/keyfunc/v3"

	"github.com/OFFIS-RIT/interactome/internal/backend"
	"github.com/OFFIS-RIT/interactome/internal/config"
	"github.com/OFFIS-RIT/interactome/internal/queue"
	"github.com/OFFIS-RIT/interactome/internal/server"
	mid "github.com/OFFIS-RIT/interactome/internal/server/middleware"
	"github.com/OFFIS-RIT/interactome/internal/util"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	cfg := config.Load()
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Format: cfg.LogFormat,
	})
	logger.Init(consoleLogger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Unable to open store", "err", err)
	}
	defer b.Close()

	app := &mid.App{
		Engine:         b.Engine(),
		Runs:           b.Storage,
		Locker:         b.Locker,
		MasterAPIKey:   cfg.Auth.MasterAPIKey,
		MasterUserRole: cfg.Auth.MasterUserRole,
	}
	app.MasterUserID, _ = strconv.ParseInt(cfg.Auth.MasterUserID, 10, 64)

	if cfg.Auth.AuthURL != "" {
		k, err := keyfunc.NewDefault([]string{cfg.Auth.AuthURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Keyfunc = k.Keyfunc
	} else {
		logger.Warn("AUTH_URL not set, only the master API key is accepted")
	}

	// Without a broker the API still serves queries; loads are rejected.
	if cfg.RabbitMQ.Host != "" {
		conn, err := queue.Init(cfg.RabbitMQ)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()

		if err := queue.SetupQueues(ch); err != nil {
			logger.Fatal("Failed to declare queues", "err", err)
		}
		app.Queue = queue.NewChannelPublisher(ch)
	}

	if err := server.Run(ctx, server.New(app), cfg.Port); err != nil {
		logger.Fatal("Server stopped", "err", err)
	}
	logger.Info("Server stopped")
}
