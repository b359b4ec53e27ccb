package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"Go_FileStore/config"
	"Go_FileStore/internal/logging"
	"Go_FileStore/internal/mq"
	"Go_FileStore/internal/repo"
	"Go_FileStore/internal/storage"
	"Go_FileStore/internal/task"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

type dlqMessage struct {
	TaskID   uint64    `json:"task_id"`
	Attempt  int       `json:"attempt"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// Broker publishes follow-up messages for failed tasks.
type Broker interface {
	PublishRetry(ctx context.Context, body []byte, delay time.Duration) error
	PublishDLQ(ctx context.Context, body []byte) error
}

// MirrorWorker replicates stored files to the object store.
type MirrorWorker struct {
	tasks       *repo.MirrorTaskRepo
	store       storage.Store
	fs          afero.Fs
	broker      Broker
	limiter     *rate.Limiter
	concurrency int
	retryMax    int
	delays      []time.Duration
	log         *logging.Logger
}

func NewMirrorWorker(cfg config.Config, tasks *repo.MirrorTaskRepo, store storage.Store, fs afero.Fs, broker Broker) *MirrorWorker {
	concurrency := cfg.MirrorConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	burst := cfg.MirrorBurst
	if burst <= 0 {
		burst = 1
	}
	var limiter *rate.Limiter
	if cfg.MirrorRate <= 0 {
		limiter = rate.NewLimiter(rate.Inf, burst)
	} else {
		limiter = rate.NewLimiter(rate.Limit(cfg.MirrorRate), burst)
	}
	retryMax := cfg.MirrorRetryMax
	if retryMax < 0 {
		retryMax = 0
	}
	return &MirrorWorker{
		tasks:       tasks,
		store:       store,
		fs:          fs,
		broker:      broker,
		limiter:     limiter,
		concurrency: concurrency,
		retryMax:    retryMax,
		delays:      cfg.MirrorRetryDelays,
		log:         logging.With("component", "mirror-worker"),
	}
}

// RunMirrorWorker consumes mirror tasks from RabbitMQ until ctx is done.
func RunMirrorWorker(ctx context.Context, cfg config.Config, tasks *repo.MirrorTaskRepo, store storage.Store, fs afero.Fs) error {
	client, err := mq.Dial(cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}
	deliveries, err := client.Consume(cfg.RabbitMQPrefetch)
	if err != nil {
		return err
	}
	return NewMirrorWorker(cfg, tasks, store, fs, client).Run(ctx, deliveries)
}

// Run handles deliveries with bounded concurrency. It returns once ctx
// is done and every started handler has finished.
func (w *MirrorWorker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("mirror worker: delivery channel closed")
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				_ = delivery.Nack(false, true)
				return nil
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				w.handle(ctx, d)
			}(delivery)
		}
	}
}

func (w *MirrorWorker) handle(ctx context.Context, delivery amqp.Delivery) {
	var msg task.MirrorMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		w.log.Warn("invalid message", "err", err)
		_ = delivery.Ack(false)
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		_ = delivery.Nack(false, true)
		return
	}

	if err := task.ProcessMirrorTask(ctx, w.tasks, w.store, w.fs, msg.TaskID); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// hand the task back so the redelivery can claim it
			_ = w.tasks.MarkRetrying(context.Background(), msg.TaskID, msg.Attempt, time.Now(), err)
			_ = delivery.Nack(false, true)
			return
		}
		var handleErr error
		if shouldRetry(err) {
			handleErr = w.scheduleRetry(ctx, msg, err)
		} else {
			handleErr = w.markFailed(ctx, msg, err)
		}
		if handleErr != nil {
			w.log.Error("failure handling failed", "task_id", msg.TaskID, "err", handleErr)
			_ = delivery.Nack(false, true)
			return
		}
	}

	_ = delivery.Ack(false)
}

func shouldRetry(err error) bool {
	switch {
	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, task.ErrUnknownAction),
		errors.Is(err, os.ErrNotExist):
		return false
	}
	return true
}

func (w *MirrorWorker) scheduleRetry(ctx context.Context, msg task.MirrorMessage, procErr error) error {
	nextAttempt := msg.Attempt + 1
	if w.retryMax == 0 || nextAttempt > w.retryMax {
		return w.markFailed(ctx, msg, procErr)
	}

	delay := pickRetryDelay(nextAttempt, w.delays)
	if err := w.tasks.MarkRetrying(ctx, msg.TaskID, nextAttempt, time.Now().Add(delay), procErr); err != nil {
		return err
	}

	msg.Attempt = nextAttempt
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	w.log.Info("retry scheduled", "task_id", msg.TaskID, "attempt", nextAttempt, "delay", delay, "err", procErr)
	return w.broker.PublishRetry(ctx, body, delay)
}

func (w *MirrorWorker) markFailed(ctx context.Context, msg task.MirrorMessage, procErr error) error {
	if err := w.tasks.MarkFailed(ctx, msg.TaskID, procErr); err != nil {
		return err
	}

	body, err := json.Marshal(dlqMessage{
		TaskID:   msg.TaskID,
		Attempt:  msg.Attempt,
		Error:    procErr.Error(),
		FailedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	if err := w.broker.PublishDLQ(ctx, body); err != nil {
		w.log.Warn("dlq publish failed", "task_id", msg.TaskID, "err", err)
	}
	return nil
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
