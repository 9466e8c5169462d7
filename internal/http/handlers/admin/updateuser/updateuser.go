// Package updateuser реализует HTTP-обработчик административного
// редактирования учетных записей.
//
// Администратор может переименовать пользователя и изменить роль.
// Роль действующего администратора при этом не понижается.
package updateuser

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

	"github.com/bagdatov/carmarket/internal/http/response"
	"github.com/bagdatov/carmarket/internal/lib/errs"
	"github.com/bagdatov/carmarket/internal/lib/sl"
	"github.com/bagdatov/carmarket/internal/models"
)

// Request — структура входных данных административного редактирования.
// Пустые поля остаются без изменений.
type Request struct {
	Username string `json:"username" validate:"omitempty,min=2,max=18"`
	Role     string `json:"role" validate:"omitempty,oneof=CLIENT ADMIN"`
}

// Service описывает интерфейс бизнес-логики административного редактирования.
type Service interface {
	AdminUpdate(ctx context.Context, userUID, username, role string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы административного редактирования.
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
// @Summary Редактирование учетной записи администратором
// @Description Изменяет имя пользователя и/или роль. Роль действующего администратора не понижается.
// @Tags Admin
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path string true "uid учетной записи"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Учетная запись обновлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Учетная запись не найдена"
// @Failure 409 {object} response.ErrorResponse "Имя пользователя занято"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.updateuser"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	targetUID := chi.URLParam(r, "id")

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

	user, err := h.userService.AdminUpdate(r.Context(), targetUID, req.Username, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, errs.ErrAlreadyExists):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("username already taken"))
		case errors.Is(err, errs.ErrForbidden):
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("unsupported role"))
		default:
			log.Error("failed to update user", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("user updated by admin", slog.String("user_uid", targetUID))
	render.JSON(w, r, response.OKWithData(user))
}
