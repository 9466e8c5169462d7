// Package identity предоставляет маршруты сервиса учетных записей.
package identity

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/bagdatov/carmarket/internal/config"
	"github.com/bagdatov/carmarket/internal/http/handlers/admin/listusers"
	"github.com/bagdatov/carmarket/internal/http/handlers/admin/updateuser"
	"github.com/bagdatov/carmarket/internal/http/handlers/auth/forgotpassword"
	"github.com/bagdatov/carmarket/internal/http/handlers/auth/login"
	"github.com/bagdatov/carmarket/internal/http/handlers/auth/resendcode"
	"github.com/bagdatov/carmarket/internal/http/handlers/auth/resetpassword"
	"github.com/bagdatov/carmarket/internal/http/handlers/auth/signup"
	"github.com/bagdatov/carmarket/internal/http/handlers/auth/verifycode"
	"github.com/bagdatov/carmarket/internal/http/handlers/health"
	"github.com/bagdatov/carmarket/internal/http/handlers/user/update"
	"github.com/bagdatov/carmarket/internal/http/middlewarectx"
	"github.com/bagdatov/carmarket/internal/lib/roles"
	authservice "github.com/bagdatov/carmarket/internal/services/auth"
	userservice "github.com/bagdatov/carmarket/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты сервиса.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	authService *authservice.AuthService, userService *userservice.UserService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.IdentityMiddleware(authService, logger))
		r.Use(middlewarectx.RateLimitMiddleware(50, 100, logger))

		// Открытые конечные точки
		r.Post("/signup", signup.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Post("/verify-code", verifycode.New(logger, authService).ServeHTTP)
		r.Post("/resend-code", resendcode.New(logger, authService).ServeHTTP)
		r.Post("/forgot-password", forgotpassword.New(logger, authService).ServeHTTP)
		r.Patch("/reset-password", resetpassword.New(logger, authService).ServeHTTP)

		// Личный кабинет
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireRole(roles.Client, logger))
			r.Patch("/users/{id}", update.New(logger, userService).ServeHTTP)
		})

		// Администрирование
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.RequireRole(roles.Admin, logger))
			r.Get("/users", listusers.New(logger, userService).ServeHTTP)
			r.Patch("/users/{id}", updateuser.New(logger, userService).ServeHTTP)
		})
	})

	r.Get("/health", health.New("identity", cfg.Env).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
