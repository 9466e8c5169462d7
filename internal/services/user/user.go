// Package user содержит логику бизнес-уровня для управления учетными
// записями: самостоятельное редактирование профиля и административные
// операции.
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bagdatov/carmarket/internal/lib/errs"
	"github.com/bagdatov/carmarket/internal/lib/password"
	"github.com/bagdatov/carmarket/internal/lib/roles"
	"github.com/bagdatov/carmarket/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateUsername(ctx context.Context, userUID, username string) error
	UpdateRole(ctx context.Context, userUID, role string) error
	UpdatePassword(ctx context.Context, userUID, passwordHash string) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// UserService отвечает за просмотр и изменение учетных записей.
type UserService struct {
	users UserRepository
	log   *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(users UserRepository, log *slog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// ListUsers возвращает страницу пользователей и общее количество
// учетных записей.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	const op = "user.ListUsers"

	list, err := s.users.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	total, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return list, total, nil
}

// AdminUpdate изменяет имя пользователя и роль учетной записи от имени
// администратора. Пустое поле означает "не менять". Роль действующего
// администратора не понижается: такое изменение молча пропускается.
// GUEST не хранится в базе и не может быть назначен.
func (s *UserService) AdminUpdate(ctx context.Context, userUID, username, role string) (*models.User, error) {
	const op = "user.AdminUpdate"

	target, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if username != "" && username != target.Username {
		if err := s.users.UpdateUsername(ctx, userUID, username); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		target.Username = username
	}

	if role != "" && role != target.Role {
		if !roles.IsValid(role) || role == roles.Guest {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrForbidden)
		}
		if target.Role == roles.Admin {
			s.log.Info("skipping role change for admin account",
				slog.String("user_uid", userUID))
		} else {
			if err := s.users.UpdateRole(ctx, userUID, role); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			target.Role = role
		}
	}

	return target, nil
}

// SelfUpdate изменяет имя пользователя и пароль собственной учетной записи.
// Операция требует действующий пароль; несовпадение дает
// errs.ErrInvalidCredentials. Пустое поле означает "не менять".
func (s *UserService) SelfUpdate(ctx context.Context, userUID, currentPassword, newUsername, newPassword string) (*models.User, error) {
	const op = "user.SelfUpdate"

	target, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(target.PasswordHash, currentPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrInvalidCredentials)
	}

	if newUsername != "" && newUsername != target.Username {
		if err := s.users.UpdateUsername(ctx, userUID, newUsername); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		target.Username = newUsername
	}

	if newPassword != "" {
		hashed, err := password.GetHash(newPassword)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.users.UpdatePassword(ctx, userUID, hashed); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		target.PasswordHash = hashed
	}

	return target, nil
}
