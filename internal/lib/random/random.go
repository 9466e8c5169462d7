// Package random генерирует секреты для подтверждения email и сброса пароля.
// Все значения получаются из crypto/rand.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// SixDigitCode возвращает равномерно случайный шестизначный код
// в диапазоне 100000–999999.
func SixDigitCode() (string, error) {
	const op = "random.SixDigitCode"
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Hex возвращает hex-строку из size случайных байт. Используется для
// непредсказуемых токенов сброса пароля (size >= 32).
func Hex(size int) (string, error) {
	const op = "random.Hex"
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(buf), nil
}
