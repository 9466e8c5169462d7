package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/bagdatov/carmarket/internal/models"
)

// MailPublisher публикует почтовые задачи в обменник писем. Ключ
// маршрутизации выбирается по типу задачи, сообщения помечаются
// персистентными и переживают рестарт брокера.
type MailPublisher struct {
	ch *amqp.Channel
}

// NewMailPublisher создает новый экземпляр MailPublisher.
func NewMailPublisher(ch *amqp.Channel) *MailPublisher {
	return &MailPublisher{ch: ch}
}

// PublishMailTask сериализует задачу и отправляет ее в очередь,
// соответствующую типу письма.
func (p *MailPublisher) PublishMailTask(task models.MailTask) error {
	const op = "rabbitmq.PublishMailTask"

	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		MailExchange,
		routingKey(task.Kind),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// routingKey сопоставляет тип задачи с ключом маршрутизации. Неизвестный
// тип уходит в очередь подтверждений, там воркер его отбросит.
func routingKey(kind string) string {
	if kind == models.MailKindReset {
		return RoutingKeyReset
	}
	return RoutingKeyVerification
}
