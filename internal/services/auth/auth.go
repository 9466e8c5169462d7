// Package auth содержит логику бизнес-уровня для регистрации, входа,
// подтверждения email и восстановления пароля.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bagdatov/carmarket/internal/lib/errs"
	"github.com/bagdatov/carmarket/internal/lib/jwt"
	"github.com/bagdatov/carmarket/internal/lib/password"
	"github.com/bagdatov/carmarket/internal/lib/random"
	"github.com/bagdatov/carmarket/internal/lib/roles"
	"github.com/bagdatov/carmarket/internal/lib/sl"
	"github.com/bagdatov/carmarket/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	MarkVerified(ctx context.Context, userUID string) error
	SetResetToken(ctx context.Context, userUID, token string, expires time.Time) error
	ResetPasswordByToken(ctx context.Context, token, passwordHash string) error
}

// CodeManager описывает контракт для кодов подтверждения email.
type CodeManager interface {
	IssueCode(ctx context.Context, userUID string) (string, error)
	VerifyCode(ctx context.Context, userUID, code string) error
	RegisterAttempt(ctx context.Context, userUID string) error
}

// MailPublisher описывает контракт для постановки писем в очередь.
type MailPublisher interface {
	PublishMailTask(task models.MailTask) error
}

// AuthService отвечает за регистрацию, авторизацию, подтверждение email
// и восстановление пароля.
type AuthService struct {
	users    UserRepository
	codes    CodeManager
	mail     MailPublisher
	jwtMaker jwt.Maker
	log      *slog.Logger

	frontendURL   string
	resetTokenTTL time.Duration
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, codes CodeManager, mail MailPublisher,
	jwtMaker jwt.Maker, log *slog.Logger, frontendURL string, resetTokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		codes:         codes,
		mail:          mail,
		jwtMaker:      jwtMaker,
		log:           log,
		frontendURL:   frontendURL,
		resetTokenTTL: resetTokenTTL,
	}
}

// Register создает нового пользователя с хэшированием пароля и ролью CLIENT,
// затем выпускает код подтверждения и ставит письмо в очередь.
// Роль из запроса не принимается, назначить другую может только администратор.
func (s *AuthService) Register(ctx context.Context, name, surname, username, email, rawPassword string) (string, error) {
	const op = "auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Name:         name,
		Surname:      surname,
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         roles.Client,
		IsVerified:   false,
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sendVerification(ctx, uid, username, email); err != nil {
		// аккаунт уже создан, код можно запросить повторно
		s.log.Error("failed to send verification code after signup", sl.Err(err))
	}
	return uid, nil
}

// Login проверяет учетные данные и возвращает JWT. Имя пользователя, email
// и пароль должны относиться к одной учетной записи; любое несовпадение
// дает одинаковую ошибку errs.ErrInvalidCredentials.
//
// Для неподтвержденной учетной записи вход не выполняется: выпускается
// новый код (с учетом лимита отправок) и возвращается errs.ErrNotVerified
// вместе с пользователем, чтобы вызывающая сторона могла сообщить uid.
func (s *AuthService) Login(ctx context.Context, username, email, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, errs.ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Email != email {
		return "", nil, fmt.Errorf("%s: %w", op, errs.ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, errs.ErrInvalidCredentials)
	}

	if !user.IsVerified {
		if err := s.sendVerification(ctx, user.UID, user.Username, user.Email); err != nil {
			if errors.Is(err, errs.ErrTooManyRequests) {
				return "", nil, fmt.Errorf("%s: %w", op, errs.ErrTooManyRequests)
			}
			s.log.Error("failed to resend verification code on login", sl.Err(err))
		}
		return "", user, fmt.Errorf("%s: %w", op, errs.ErrNotVerified)
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// Authenticate разбирает JWT и перечитывает пользователя из базы, чтобы
// отзыв роли или удаление аккаунта действовали немедленно, не дожидаясь
// истечения токена.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUser(ctx, claims.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// VerifyEmail проверяет код подтверждения, помечает учетную запись
// подтвержденной и возвращает свежий JWT.
func (s *AuthService) VerifyEmail(ctx context.Context, userUID, code string) (string, *models.User, error) {
	const op = "auth.VerifyEmail"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.codes.VerifyCode(ctx, userUID, code); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsVerified {
		if err := s.users.MarkVerified(ctx, userUID); err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		user.IsVerified = true
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ResendCode выпускает новый код подтверждения для неподтвержденной
// учетной записи с учетом лимита отправок.
func (s *AuthService) ResendCode(ctx context.Context, userUID string) error {
	const op = "auth.ResendCode"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.IsVerified {
		return fmt.Errorf("%s: %w", op, errs.ErrAlreadyVerified)
	}

	if err := s.sendVerification(ctx, user.UID, user.Username, user.Email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RequestPasswordReset выпускает токен сброса пароля и ставит письмо со
// ссылкой в очередь. Для неизвестного email возвращается nil без каких-либо
// действий: наличие учетной записи не раскрывается.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "auth.RequestPasswordReset"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.log.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := random.Hex(32)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	expires := time.Now().UTC().Add(s.resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.UID, token, expires); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	task := models.MailTask{
		Kind:      models.MailKindReset,
		Email:     user.Email,
		Username:  user.Username,
		ResetLink: s.frontendURL + "/reset-password?token=" + token,
	}
	if err := s.mail.PublishMailTask(task); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("password reset issued", slog.String("user_uid", user.UID))
	return nil
}

// ResetPassword устанавливает новый пароль по действующему токену сброса.
// Токен одноразовый: успешный сброс его гасит, истекший или неизвестный
// дает errs.ErrResetTokenInvalid.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.ResetPasswordByToken(ctx, token, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// sendVerification учитывает попытку отправки, выпускает код и ставит
// письмо в очередь. Порядок фиксирован: превышение лимита не дает ни
// нового кода, ни письма.
func (s *AuthService) sendVerification(ctx context.Context, userUID, username, email string) error {
	if err := s.codes.RegisterAttempt(ctx, userUID); err != nil {
		return err
	}
	code, err := s.codes.IssueCode(ctx, userUID)
	if err != nil {
		return err
	}
	task := models.MailTask{
		Kind:     models.MailKindVerification,
		Email:    email,
		Username: username,
		Code:     code,
	}
	return s.mail.PublishMailTask(task)
}
