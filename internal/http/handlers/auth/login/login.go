// Package login реализует HTTP-обработчик входа пользователей.
//
// Вход требует совпадения имени пользователя, email и пароля одной учетной
// записи; любое несовпадение дает одинаковый ответ 401. Неподтвержденная
// учетная запись получает 403 с uid для последующего ввода кода.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/bagdatov/carmarket/internal/http/middlewarectx"
	"github.com/bagdatov/carmarket/internal/http/response"
	"github.com/bagdatov/carmarket/internal/lib/errs"
	"github.com/bagdatov/carmarket/internal/lib/roles"
	"github.com/bagdatov/carmarket/internal/lib/sl"
	"github.com/bagdatov/carmarket/internal/models"
)

// Request — структура входных данных для входа.
type Request struct {
	Username string `json:"username" validate:"required,min=2,max=18"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	Login(ctx context.Context, username, email, password string) (string, *models.User, error)
}

// Handler обрабатывает HTTP-запросы входа.
type Handler struct {
	log         *slog.Logger
	authService Service
	validate    *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService Service) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Аутентифицирует пользователя по имени, email и паролю. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или уже выполнен вход"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 403 {object} response.ErrorResponse "Email не подтвержден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Превышен лимит отправки кодов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if role, ok := r.Context().Value(middlewarectx.Role).(string); ok && role != roles.Guest {
		log.Info("login attempt with active session", slog.String("role", role))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("already logged in"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidCredentials):
			log.Info("login rejected", slog.String("username", req.Username))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(errs.ErrInvalidCredentials.Error()))
		case errors.Is(err, errs.ErrNotVerified):
			log.Info("login attempt on unverified account", slog.String("username", req.Username))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Response{
				Status: response.StatusError,
				Error:  "email is not verified, a new code has been sent",
				Data:   map[string]any{"user_uid": user.UID},
			})
		case errors.Is(err, errs.ErrTooManyRequests):
			w.WriteHeader(http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("too many verification codes requested, try again later"))
		default:
			log.Error("login failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("login success", slog.String("username", req.Username))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":    token,
		"user_uid": user.UID,
		"username": user.Username,
		"role":     user.Role,
	}))
}
