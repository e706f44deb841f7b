package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/dto"
	"shipment-orchestrator/internal/service"
)

// Headers con el estado de reintentos del job
const (
	headerAttempt = "x-attempt"
	headerRetries = "x-retries"
)

// Channel es la parte de *amqp091.Channel que usa el publicador.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Queue publica jobs en la cola de trabajo. Las demoras se resuelven con una
// cola por duración (TTL) que al expirar devuelve el mensaje a la cola de trabajo.
type Queue struct {
	ch     Channel
	name   string
	mu     sync.Mutex
	delays map[int64]string
	logger *zap.Logger
}

var _ service.JobQueue = (*Queue)(nil)

func NewQueue(ch Channel, name string, logger *zap.Logger) *Queue {
	return &Queue{
		ch:     ch,
		name:   name,
		delays: map[int64]string{},
		logger: logger.Named("queue"),
	}
}

func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) FailedName() string {
	return q.name + ".failed"
}

// Declare crea la cola de trabajo y su cola de fallidos.
func (q *Queue) Declare() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.ch.QueueDeclare(q.FailedName(), true, false, false, false, nil); err != nil {
		return fmt.Errorf("declarando %s: %w", q.FailedName(), err)
	}
	_, err := q.ch.QueueDeclare(q.name, true, false, false, false, amqp091.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": q.FailedName(),
	})
	if err != nil {
		return fmt.Errorf("declarando %s: %w", q.name, err)
	}
	return nil
}

// Add encola un job nuevo con el presupuesto de reintentos indicado.
func (q *Queue) Add(ctx context.Context, job dto.OrderProgressJob, opts service.JobOptions) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.publish(ctx, body, 0, opts.Retries, opts.Delay)
}

// retry vuelve a publicar un job fallido conservando su cuerpo.
func (q *Queue) retry(ctx context.Context, body []byte, attempt, retries int, delay time.Duration) error {
	return q.publish(ctx, body, attempt, retries, delay)
}

func (q *Queue) publish(ctx context.Context, body []byte, attempt, retries int, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := q.name
	if delay > 0 {
		var err error
		if key, err = q.delayQueue(delay); err != nil {
			return err
		}
	}

	err := q.ch.PublishWithContext(ctx, "", key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Headers: amqp091.Table{
			headerAttempt: int32(attempt),
			headerRetries: int32(retries),
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("publicando en %s: %w", key, err)
	}
	q.logger.Debug("Job publicado",
		zap.String("queue", key), zap.Int("attempt", attempt), zap.Duration("delay", delay))
	return nil
}

// delayQueue declara (una sola vez) la cola de espera para esa duración.
// Se llama con q.mu tomado.
func (q *Queue) delayQueue(delay time.Duration) (string, error) {
	ms := delay.Milliseconds()
	if name, ok := q.delays[ms]; ok {
		return name, nil
	}

	name := fmt.Sprintf("%s.delay.%d", q.name, ms)
	_, err := q.ch.QueueDeclare(name, true, false, false, false, amqp091.Table{
		"x-message-ttl":             ms,
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": q.name,
	})
	if err != nil {
		return "", fmt.Errorf("declarando %s: %w", name, err)
	}
	q.delays[ms] = name
	return name, nil
}

func headerInt(h amqp091.Table, key string) int {
	switch v := h[key].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	}
	return 0
}
