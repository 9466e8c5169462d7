// Package verifycode реализует HTTP-обработчик подтверждения email по коду.
package verifycode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/bagdatov/carmarket/internal/http/response"
	"github.com/bagdatov/carmarket/internal/lib/errs"
	"github.com/bagdatov/carmarket/internal/lib/sl"
	"github.com/bagdatov/carmarket/internal/models"
)

// Request — структура входных данных для подтверждения email.
type Request struct {
	UserUID string `json:"user_uid" validate:"required,uuid"`
	Code    string `json:"code" validate:"required,len=6,numeric"`
}

// Service описывает интерфейс бизнес-логики подтверждения email.
type Service interface {
	VerifyEmail(ctx context.Context, userUID, code string) (string, *models.User, error)
}

// Handler обрабатывает HTTP-запросы подтверждения email.
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
// @Summary Подтверждение email
// @Description Проверяет шестизначный код и возвращает свежий JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "uid учетной записи и код из письма"
// @Success 200 {object} response.Response "Email подтвержден"
// @Failure 400 {object} response.ErrorResponse "Неверный или истекший код"
// @Failure 404 {object} response.ErrorResponse "Учетная запись не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /verify-code [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifycode"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	token, user, err := h.authService.VerifyEmail(r.Context(), req.UserUID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrIncorrectCode):
			log.Info("incorrect verification code", slog.String("user_uid", req.UserUID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("incorrect or expired code"))
		case errors.Is(err, errs.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("email verification failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("email verified", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":    token,
		"user_uid": user.UID,
		"username": user.Username,
		"role":     user.Role,
	}))
}
