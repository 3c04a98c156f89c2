package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/OFFIS-RIT/interactome/internal/backend"
	"github.com/OFFIS-RIT/interactome/internal/config"
	"github.com/OFFIS-RIT/interactome/internal/queue"
	"github.com/OFFIS-RIT/interactome/internal/storage"
	"github.com/OFFIS-RIT/interactome/internal/util"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/logger/console"
)

const (
	connectAttempts = 10
	connectDelay    = 3 * time.Second
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

	if err := backend.Migrate(cfg); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Unable to open store", "err", err)
	}
	defer b.Close()

	if err := queue.RecoverStaleLoadRuns(ctx, b.Storage, b.Locker); err != nil {
		logger.Error("Stale load run recovery failed", "err", err)
	}

	// Init rabbitmq
	conn, err := util.RetryWithContext(ctx, connectAttempts, connectDelay, func(context.Context) (*amqp091.Connection, error) {
		return queue.Init(cfg.RabbitMQ)
	})
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

	// prefetch=1: one load at a time per worker
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.LoadQueue,
		queue.LoadQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.LoadQueue, "err", err)
	}

	processor := queue.NewProcessor(b.Storage, func(ctx context.Context, source string) (loader.Runner, error) {
		opener, err := storage.NewSourceOpener(ctx, cfg, source)
		if err != nil {
			return nil, err
		}
		return b.Loader(opener), nil
	})
	dlq := queue.NewChannelPublisher(ch)
	closed := conn.NotifyClose(make(chan *amqp091.Error, 1))

	logger.Info("Listening for messages", "queue", queue.LoadQueue)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				logger.Info("Stopping message processor")
				return nil
			case msg, ok := <-msgs:
				if !ok {
					return errors.New("message channel closed")
				}
				startTime := time.Now()
				logger.Info("Received message", "queue", queue.LoadQueue)
				queue.HandleDelivery(gCtx, msg, dlq, processor.ProcessLoadMessage)
				logger.Info("Processing time", "duration", time.Since(startTime).Round(time.Second).String())
				logger.Info("Waiting for next message")
			}
		}
	})
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				return amqpErr
			}
			return errors.New("connection closed")
		}
	})

	err = g.Wait()
	if err != nil && ctx.Err() == nil {
		logger.Fatal("Worker stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
