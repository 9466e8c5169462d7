// Package errs содержит ожидаемые ошибки доменной логики, общие для
// сервисов и HTTP-обработчиков. Обработчики сопоставляют их с 4xx-статусами
// через errors.Is; все прочие ошибки считаются внутренними и логируются.
package errs

import "errors"

var (
	// ErrInvalidCredentials — неверная пара логин/пароль. Текст намеренно
	// не уточняет, какое именно поле не совпало.
	ErrInvalidCredentials = errors.New("incorrect user details")

	// ErrNotVerified — учетная запись существует, но email не подтвержден.
	ErrNotVerified = errors.New("account not verified")

	// ErrAlreadyVerified — повторная отправка кода подтвержденному аккаунту.
	ErrAlreadyVerified = errors.New("user already verified")

	// ErrIncorrectCode — код подтверждения не совпал или истек.
	// Истекший и неверный код не различаются.
	ErrIncorrectCode = errors.New("incorrect code")

	// ErrTooManyRequests — исчерпан лимит повторных отправок кода.
	ErrTooManyRequests = errors.New("too many requests")

	// ErrNotFound — учетная запись не найдена.
	ErrNotFound = errors.New("user not found")

	// ErrAlreadyExists — username или email уже заняты.
	ErrAlreadyExists = errors.New("username or email already exists")

	// ErrResetTokenInvalid — токен сброса пароля не найден или истек.
	// Единый класс ошибки: not-found и expired не различаются.
	ErrResetTokenInvalid = errors.New("invalid or expired token")

	// ErrForbidden — роли запроса недостаточно для операции.
	ErrForbidden = errors.New("forbidden")
)
