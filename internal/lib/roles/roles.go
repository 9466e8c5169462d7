// Package roles описывает иерархию ролей пользователей и операции сравнения над ней.
//
// Иерархия неизменяема и загружается один раз при старте процесса:
// GUEST < CLIENT < ADMIN. Неизвестная роль не проходит ни одну проверку.
package roles

// Имена ролей, допустимые в учетных записях и JWT claims.
// Guest никогда не сохраняется в базе — это роль любого
// неаутентифицированного запроса.
const (
	Guest  = "GUEST"
	Client = "CLIENT"
	Admin  = "ADMIN"
)

var hierarchy = map[string]int{
	Guest:  1,
	Client: 2,
	Admin:  3,
}

// Rank возвращает числовой ранг роли и признак того, что роль известна.
func Rank(role string) (int, bool) {
	rank, ok := hierarchy[role]
	return rank, ok
}

// IsValid сообщает, входит ли роль в иерархию.
func IsValid(role string) bool {
	_, ok := hierarchy[role]
	return ok
}

// Satisfies проверяет, что роль role имеет ранг не ниже required.
// Любая неизвестная роль (с обеих сторон) не удовлетворяет требованию.
func Satisfies(role, required string) bool {
	roleRank, ok := hierarchy[role]
	if !ok {
		return false
	}
	requiredRank, ok := hierarchy[required]
	if !ok {
		return false
	}
	return roleRank >= requiredRank
}
