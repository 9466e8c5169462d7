// Package sender отправляет письма по задачам из почтовой очереди.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bagdatov/carmarket/internal/lib/sl"
	"github.com/bagdatov/carmarket/internal/lib/smtp"
	"github.com/bagdatov/carmarket/internal/models"
)

// SenderService превращает задачи models.MailTask в письма и отправляет
// их через SMTP транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendMailTask обрабатывает тело сообщения из очереди. Ошибка возврашается
// потребителю, который вернет сообщение в очередь для повторной попытки.
func (s *SenderService) SendMailTask(body []byte) error {
	var task models.MailTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("failed to unmarshal mail task", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	var subject, bodyText string
	switch task.Kind {
	case models.MailKindVerification:
		subject = "Email verification"
		bodyText = fmt.Sprintf("Hello, %s!\n\nYour verification code is: %s\n\nThe code is valid for 20 minutes.",
			task.Username, task.Code)
	case models.MailKindReset:
		subject = "Forgot password"
		bodyText = fmt.Sprintf("Hello, %s!\n\nTo reset your password, follow the link:\n%s\n\nThe link is valid for 1 hour. If you did not request a reset, ignore this message.",
			task.Username, task.ResetLink)
	default:
		// незнакомый тип не вернется в очередь, повтор бессмыслен
		s.log.Error("unknown mail task kind", slog.String("kind", task.Kind))
		return nil
	}

	return s.sendEmail([]string{task.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	// Close после успешного Quit вернет ошибку закрытого соединения
	defer func() { _ = client.Close() }()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
