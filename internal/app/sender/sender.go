// Package sender собирает почтовый воркер: подключение к RabbitMQ,
// SMTP транспорт и потребителей очередей писем.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/bagdatov/carmarket/internal/config"
	smtptransport "github.com/bagdatov/carmarket/internal/lib/smtp"
	"github.com/bagdatov/carmarket/internal/rabbitmq"
	senderservice "github.com/bagdatov/carmarket/internal/services/sender"
)

// App — воркер отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает все зависимости воркера и готовый к запуску App.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetMailQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtptransport.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей почтовых очередей и ждет отмены контекста.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetMailQueues() {
		if err := rabbitmq.ConsumeMailTasks(ctx, a.ch, a.logger, q.QueueName, a.senderService.SendMailTask); err != nil {
			a.logger.Error("failed to start consumer",
				slog.String("queue", q.QueueName), slog.Any("err", err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
