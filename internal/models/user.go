// Package models содержит структуры данных доменного уровня.
package models

import "time"

// User описывает учетную запись маркетплейса.
//
// Username и Email глобально уникальны. IsVerified показывает,
// подтвержден ли email; неподтвержденная запись проходит проверку
// учетных данных, но не получает токен доступа.
// Поля ResetPassword* заполняются на время действия запроса на сброс
// пароля и очищаются при его использовании.
type User struct {
	UID                  string     `json:"uid"`
	Name                 string     `json:"name"`
	Surname              string     `json:"surname"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"`
	Role                 string     `json:"role"`
	IsVerified           bool       `json:"is_verified"`
	ResetPasswordToken   string     `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
}
