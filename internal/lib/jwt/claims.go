// Package jwt реализует выпуск и проверку подписанных токенов доступа
// с пользовательскими claim-полями идентичности.
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims описывает данные идентичности, зашитые в токен.
// Роль в claims — роль на момент выпуска; решения об авторизации
// принимаются по актуальной роли из хранилища, а не по этому полю.
type CustomClaims struct {
	UserUID              string `json:"user_uid"` // Идентификатор учетной записи
	Username             string `json:"username"` // Имя пользователя
	Role                 string `json:"role"`     // Роль на момент выпуска токена
	jwt.RegisteredClaims        // Стандартные claims (IssuedAt, ExpiresAt и пр.)
}
