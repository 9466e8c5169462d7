// Package update реализует HTTP-обработчик редактирования собственной
// учетной записи.
//
// Пользователь может изменить только свою запись: uid из пути сверяется
// с uid из контекста запроса. Любое изменение требует действующий пароль.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/bagdatov/carmarket/internal/http/middlewarectx"
	"github.com/bagdatov/carmarket/internal/http/response"
	"github.com/bagdatov/carmarket/internal/lib/errs"
	"github.com/bagdatov/carmarket/internal/lib/sl"
	"github.com/bagdatov/carmarket/internal/models"
)

// Request — структура входных данных для редактирования учетной записи.
// Пустые поля Username и Password остаются без изменений.
type Request struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Username        string `json:"username" validate:"omitempty,min=2,max=18"`
	Password        string `json:"password" validate:"omitempty,min=8"`
}

// Service описывает интерфейс бизнес-логики редактирования учетной записи.
type Service interface {
	SelfUpdate(ctx context.Context, userUID, currentPassword, newUsername, newPassword string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы редактирования учетной записи.
type Handler struct {
	log         *slog.Logger
	userService Service
	validate    *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, userService Service) *Handler {
	return &Handler{
		log:         log,
		userService: userService,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Редактирование своей учетной записи
// @Description Изменяет имя пользователя и/или пароль. Требует действующий пароль.
// @Tags Users
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path string true "uid учетной записи"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Учетная запись обновлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверный текущий пароль"
// @Failure 403 {object} response.ErrorResponse "Чужая учетная запись"
// @Failure 409 {object} response.ErrorResponse "Имя пользователя занято"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	targetUID := chi.URLParam(r, "id")
	callerUID, _ := r.Context().Value(middlewarectx.UserUID).(string)
	if callerUID == "" || callerUID != targetUID {
		log.Info("attempt to edit foreign account",
			slog.String("caller_uid", callerUID), slog.String("target_uid", targetUID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("access denied"))
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

	user, err := h.userService.SelfUpdate(r.Context(), targetUID, req.CurrentPassword, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidCredentials):
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("current password is incorrect"))
		case errors.Is(err, errs.ErrAlreadyExists):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("username already taken"))
		case errors.Is(err, errs.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("failed to update account", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("account updated", slog.String("user_uid", targetUID))
	render.JSON(w, r, response.OKWithData(user))
}
