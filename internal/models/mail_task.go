package models

// Виды почтовых задач, публикуемых в очередь.
const (
	MailKindVerification = "verification"
	MailKindReset        = "reset"
)

// MailTask — сообщение для почтового воркера. Публикуется в RabbitMQ
// из пути запроса и доставляется по SMTP асинхронно.
type MailTask struct {
	Kind     string `json:"kind"`
	Email    string `json:"email"`
	Username string `json:"username"`
	// Code заполнен для писем подтверждения email.
	Code string `json:"code,omitempty"`
	// ResetLink заполнен для писем сброса пароля.
	ResetLink string `json:"reset_link,omitempty"`
}
