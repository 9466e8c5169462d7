// Package verification содержит логику одноразовых кодов подтверждения
// email и лимита повторных отправок.
//
// Код живет в Redis под ключом аккаунта: выпуск нового кода замещает
// прежний (действителен всегда только последний), а TTL ключа реализует
// автоматическое истечение. Счетчик отправок — атомарный INCR с окном,
// отсчитываемым от первой попытки.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bagdatov/carmarket/internal/cache"
	"github.com/bagdatov/carmarket/internal/config"
	"github.com/bagdatov/carmarket/internal/lib/errs"
	"github.com/bagdatov/carmarket/internal/lib/random"
	"github.com/bagdatov/carmarket/internal/lib/sl"
)

// Service управляет кодами подтверждения и счетчиками отправок.
type Service struct {
	cache        *cache.Cache
	log          *slog.Logger
	codeTTL      time.Duration
	resendLimit  int
	resendWindow time.Duration
}

// New создает новый экземпляр Service с настройками сроков и лимитов.
func New(c *cache.Cache, log *slog.Logger, cfg config.Verification) *Service {
	return &Service{
		cache:        c,
		log:          log,
		codeTTL:      cfg.CodeTTL,
		resendLimit:  cfg.ResendLimit,
		resendWindow: cfg.ResendWindow,
	}
}

func codeKey(userUID string) string {
	return "verifycode:" + userUID
}

func counterKey(userUID string) string {
	return "resendcount:" + userUID
}

// IssueCode выпускает новый шестизначный код для учетной записи и
// возвращает его. Прежний код, если был, перестает действовать:
// запись по ключу аккаунта замещается целиком вместе со сроком жизни.
func (s *Service) IssueCode(ctx context.Context, userUID string) (string, error) {
	const op = "verification.IssueCode"

	code, err := random.SixDigitCode()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, codeKey(userUID), code, s.codeTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("verification code issued", slog.String("user_uid", userUID))
	return code, nil
}

// VerifyCode проверяет код и удаляет его при совпадении.
// Отсутствующий, истекший и просто неверный код дают одинаковую ошибку
// errs.ErrIncorrectCode — причина отказа не раскрывается.
func (s *Service) VerifyCode(ctx context.Context, userUID, presented string) error {
	const op = "verification.VerifyCode"

	var stored string
	found, err := s.cache.Get(ctx, codeKey(userUID), &stored)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found || stored != presented {
		return fmt.Errorf("%s: %w", op, errs.ErrIncorrectCode)
	}

	if err := s.cache.Invalidate(ctx, codeKey(userUID)); err != nil {
		s.log.Error("failed to delete consumed code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RegisterAttempt учитывает попытку отправки кода. Счетчик аккаунта
// атомарно увеличивается; превышение лимита в текущем окне дает
// errs.ErrTooManyRequests. Вызывается строго до публикации письма.
func (s *Service) RegisterAttempt(ctx context.Context, userUID string) error {
	const op = "verification.RegisterAttempt"

	count, err := s.cache.Increment(ctx, counterKey(userUID), s.resendWindow)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count > int64(s.resendLimit) {
		s.log.Info("resend limit exceeded",
			slog.String("user_uid", userUID), slog.Int64("count", count))
		return fmt.Errorf("%s: %w", op, errs.ErrTooManyRequests)
	}
	return nil
}
