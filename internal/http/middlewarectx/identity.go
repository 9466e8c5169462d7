// Package middlewarectx содержит HTTP middleware идентификации и
// авторизации.
//
// IdentityMiddleware разбирает JWT из заголовка Authorization и кладет в
// контекст запроса uid, имя пользователя и роль. Запрос без токена или с
// негодным токеном не отклоняется, а продолжается с ролью GUEST: решение
// о доступе принимает RequireRole на конкретном маршруте.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/bagdatov/carmarket/internal/lib/roles"
	"github.com/bagdatov/carmarket/internal/lib/sl"
	"github.com/bagdatov/carmarket/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для uid пользователя в контексте
	UserUID Key = "user_uid"
	// User — ключ для имени пользователя в контексте
	User Key = "username"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
)

// Identifier описывает интерфейс сервиса для установления личности по JWT.
// Возвращаемый пользователь читается из базы, так что роль всегда актуальна.
type Identifier interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// IdentityMiddleware возвращает HTTP middleware, устанавливающий личность
// запроса по JWT из заголовка Authorization.
func IdentityMiddleware(authService Identifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.IdentityMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				ctx = context.WithValue(ctx, Role, roles.Guest)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := authService.Authenticate(ctx, tokenStr)
			if err != nil {
				log.Info("token rejected, continuing as guest", sl.Err(err))
				ctx = context.WithValue(ctx, Role, roles.Guest)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = context.WithValue(ctx, UserUID, user.UID)
			ctx = context.WithValue(ctx, User, user.Username)
			ctx = context.WithValue(ctx, Role, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
