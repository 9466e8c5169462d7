package rabbitmq

// MailExchange — обменник для всех исходящих писем сервиса.
const MailExchange = "mail"

// Ключи маршрутизации почтовых задач.
const (
	RoutingKeyVerification = "verification"
	RoutingKeyReset        = "reset"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetMailQueues возвращает очереди, которые обслуживает почтовый воркер.
func GetMailQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "mail.verification", RoutingKey: RoutingKeyVerification},
		{QueueName: "mail.reset", RoutingKey: RoutingKeyReset},
	}
}
