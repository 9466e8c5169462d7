package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/bagdatov/carmarket/internal/http/response"
	"github.com/bagdatov/carmarket/internal/lib/roles"
)

// RequireRole возвращает HTTP middleware, пропускающий запрос только если
// роль в контексте не ниже требуемой. Отсутствующая или незнакомая роль
// считается недостаточной.
func RequireRole(required string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(Role).(string)
			if !ok {
				role = roles.Guest
			}

			if !roles.Satisfies(role, required) {
				log.Info("access denied",
					slog.String("role", role),
					slog.String("required", required),
					slog.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
