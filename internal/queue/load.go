package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/leaselock"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

// LoadRequest is the body of a load_queue message.
type LoadRequest struct {
	RunID   string             `json:"run_id"`
	Source  string             `json:"source,omitempty"`
	Sources common.LoadSources `json:"sources"`
}

// LoaderFactory builds the loader reading from source.
type LoaderFactory func(ctx context.Context, source string) (loader.Runner, error)

type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

type Processor struct {
	runs      store.LoadRunStorage
	newLoader LoaderFactory
}

func NewProcessor(runs store.LoadRunStorage, newLoader LoaderFactory) *Processor {
	return &Processor{runs: runs, newLoader: newLoader}
}

type failedRunner struct {
	err error
}

func (r failedRunner) Load(context.Context, common.LoadSources) ([]common.TableLoad, error) {
	return nil, r.err
}

// ProcessLoadMessage executes the load described by body and records it as
// a load run.
func (p *Processor) ProcessLoadMessage(ctx context.Context, body []byte) error {
	var req LoadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("invalid load message: %w", err)
	}

	l, err := p.newLoader(ctx, req.Source)
	if err != nil {
		// Still recorded, so operators see why nothing was loaded.
		l = failedRunner{err: err}
	}

	_, err = loader.RecordedLoad(ctx, p.runs, l, req.RunID, req.Sources)
	return err
}

// HandleDelivery processes msg and acknowledges it. Failed loads are not
// retried: the message moves to the dead-letter queue.
func HandleDelivery(ctx context.Context, msg amqp091.Delivery, dlq Publisher, process func(context.Context, []byte) error) {
	err := process(ctx, msg.Body)
	if err == nil {
		if err := msg.Ack(false); err != nil {
			logger.Error("[Queue] Failed to ack message", "err", err)
		}
		return
	}

	logger.Error("[Queue] Error processing message", "queue", LoadQueue, "err", err)
	logger.Info("[Queue] Sending message to DLQ", "dlq", LoadQueueDLQ)
	if pubErr := dlq.Publish(context.WithoutCancel(ctx), LoadQueueDLQ, msg.Body); pubErr != nil {
		logger.Error("[Queue] Failed to publish to DLQ", "dlq", LoadQueueDLQ, "err", pubErr)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

// RecoverStaleLoadRuns fails runs left running by a crashed worker. It does
// nothing while a load holds the lease, since that run is still alive.
func RecoverStaleLoadRuns(ctx context.Context, runs store.LoadRunStorage, locker leaselock.Locker) error {
	if locker != nil {
		held, err := locker.Held(ctx, loader.LeaseKey)
		if err != nil {
			return fmt.Errorf("failed to check load lease: %w", err)
		}
		if held {
			logger.Debug("[Queue] Load in progress, skipping stale run recovery")
			return nil
		}
	}

	n, err := runs.FailStaleLoadRuns(ctx, "worker restarted while the load was running")
	if err != nil {
		return fmt.Errorf("failed to recover stale load runs: %w", err)
	}
	if n == 0 {
		logger.Debug("[Queue] No stale load runs found")
		return nil
	}
	logger.Info("[Queue] Marked stale load runs as failed", "count", n)
	return nil
}
