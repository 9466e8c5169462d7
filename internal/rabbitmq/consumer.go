package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/bagdatov/carmarket/internal/lib/sl"
)

// maxInFlight ограничивает число писем, обрабатываемых одновременно.
// Значение согласовано с prefetch-окном канала в SetupChannel.
const maxInFlight = 10

// ConsumeMailTasks подписывается на очередь почтовых задач и передает
// тело каждого сообщения обработчику. Подтверждение ручное: ошибка
// обработчика возвращает задачу в очередь для повторной доставки,
// успех подтверждает получение. Потребитель живет до отмены контекста.
func ConsumeMailTasks(ctx context.Context, ch *amqp.Channel, log *slog.Logger, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumeMailTasks"

	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("queue", queueName))
	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(d.Body); err != nil {
						log.Error("mail task failed, returning to queue", sl.Err(err))
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
