package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/OFFIS-RIT/interactome/internal/config"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
)

const (
	LoadQueue    = "load_queue"
	LoadQueueDLQ = LoadQueue + "_dlq"
)

func Init(cfg config.RabbitMQConfig) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	logger.Debug("[Queue] Connected to RabbitMQ", "host", cfg.Host, "port", cfg.Port)
	return conn, nil
}

// SetupQueues declares the load queue and its dead-letter queue.
func SetupQueues(ch *amqp091.Channel) error {
	for _, name := range []string{LoadQueue, LoadQueueDLQ} {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}
	return nil
}

func PublishFIFO(ctx context.Context, ch *amqp091.Channel, queueName string, data []byte, headers amqp091.Table) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.PublishWithContext(
		ctx,
		"",
		queueName,
		false,
		false,
		publishing,
	)
}

// ChannelPublisher publishes persistent messages on one channel.
type ChannelPublisher struct {
	ch *amqp091.Channel
}

func NewChannelPublisher(ch *amqp091.Channel) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, queueName string, body []byte) error {
	return PublishFIFO(ctx, p.ch, queueName, body, nil)
}
