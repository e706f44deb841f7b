// setup.go
package rabbit

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SetupConsumers declara las colas y arranca los workers sobre el canal de consumo.
// Los workers terminan cuando se cancela ctx o se cierra el canal.
func SetupConsumers(ctx context.Context, ch *amqp091.Channel, queue *Queue, consumer *OrderProgressConsumer, prefetch, workers int, logger *zap.Logger) error {
	// 1. Declarar la cola de trabajo y la de fallidos
	if err := queue.Declare(); err != nil {
		return err
	}

	// 2. Limitar mensajes sin ack por consumidor
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("configurando qos: %w", err)
	}

	// 3. Consumir con ack manual
	msgs, err := ch.Consume(queue.Name(), "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consumiendo %s: %w", queue.Name(), err)
	}

	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go func(worker int) {
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						logger.Warn("Canal de RabbitMQ cerrado", zap.Int("worker", worker))
						return
					}
					consumer.Handle(ctx, d)
				}
			}
		}(i)
	}

	logger.Info("Consumiendo cola de pasos",
		zap.String("queue", queue.Name()), zap.Int("workers", workers), zap.Int("prefetch", prefetch))
	return nil
}
