package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"aichorus/internal/cache"
	"aichorus/internal/model"
)

// HistoryInvalidateWorker consumes appended-message events and drops the
// cached history for the affected session. The appending process already
// invalidates its own cache synchronously; this consumer covers every other
// instance sharing the Redis node.
type HistoryInvalidateWorker struct {
	conn      *amqp.Connection
	history   *cache.HistoryCache
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHistoryInvalidateWorker(conn *amqp.Connection, history *cache.HistoryCache, queueName string, logger *zap.Logger) *HistoryInvalidateWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryInvalidateWorker{
		conn:      conn,
		history:   history,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *HistoryInvalidateWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *HistoryInvalidateWorker) handle(ctx context.Context, d amqp.Delivery) {
	var msg model.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.logger.Warn("decode message event failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := w.history.MarkDirty(ctx, msg.SessionID); err != nil {
		w.logger.Warn("mark history dirty failed",
			zap.Uint("session_id", msg.SessionID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	if err := w.history.DeleteHistory(ctx, msg.SessionID); err != nil {
		w.logger.Warn("invalidate history failed",
			zap.Uint("session_id", msg.SessionID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}

func (w *HistoryInvalidateWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
