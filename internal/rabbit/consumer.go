package rabbit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/dto"
	"shipment-orchestrator/internal/logger"
)

type StepExecutor interface {
	Execute(ctx context.Context, job dto.OrderProgressJob) error
}

// OrderProgressConsumer procesa los jobs de la cola de pasos con ack manual.
// Un job que falla se republica con backoff hasta agotar sus reintentos y
// luego se descarta hacia la cola de fallidos.
type OrderProgressConsumer struct {
	queue    *Queue
	executor StepExecutor
	backoff  time.Duration
	logger   *zap.Logger
}

func NewOrderProgressConsumer(queue *Queue, executor StepExecutor, backoff time.Duration, logger *zap.Logger) *OrderProgressConsumer {
	return &OrderProgressConsumer{
		queue:    queue,
		executor: executor,
		backoff:  backoff,
		logger:   logger.Named("order-progress"),
	}
}

func (c *OrderProgressConsumer) Handle(ctx context.Context, d amqp091.Delivery) {
	var job dto.OrderProgressJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		c.logger.Error("Job ilegible, se descarta", zap.String("message_id", d.MessageId), zap.Error(err))
		c.nack(d, false)
		return
	}

	attempt := headerInt(d.Headers, headerAttempt)
	retries := headerInt(d.Headers, headerRetries)

	ctx = logger.WithRequest(ctx, c.logger, job.Ctx.RequestID, job.Ctx.UserID)
	log := logger.FromContext(ctx).With(
		zap.Int64("shipment_id", job.ShipmentID),
		zap.String("step", string(job.Step)),
		zap.Int("attempt", attempt))

	err := c.executor.Execute(ctx, job)
	if err == nil {
		c.ack(d)
		return
	}

	if attempt >= retries {
		log.Error("Job sin reintentos disponibles, va a la cola de fallidos",
			zap.Int("retries", retries), zap.Error(err))
		c.nack(d, false)
		return
	}

	delay := c.backoff * time.Duration(attempt+1)
	log.Warn("Job fallido, se reintenta", zap.Duration("delay", delay), zap.Error(err))
	if perr := c.queue.retry(ctx, d.Body, attempt+1, retries, delay); perr != nil {
		// sin poder republicar, que lo reentregue el broker
		log.Error("No se pudo republicar el job", zap.Error(perr))
		c.nack(d, true)
		return
	}
	c.ack(d)
}

func (c *OrderProgressConsumer) ack(d amqp091.Delivery) {
	if err := d.Ack(false); err != nil {
		c.logger.Error("Error en ack", zap.Error(err))
	}
}

func (c *OrderProgressConsumer) nack(d amqp091.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.logger.Error("Error en nack", zap.Error(err))
	}
}
