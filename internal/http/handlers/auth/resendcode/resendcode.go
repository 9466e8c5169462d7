// Package resendcode реализует HTTP-обработчик повторной отправки кода
// подтверждения email.
package resendcode

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
)

// Request — структура входных данных для повторной отправки кода.
type Request struct {
	UserUID string `json:"user_uid" validate:"required,uuid"`
}

// Service описывает интерфейс бизнес-логики повторной отправки кода.
type Service interface {
	ResendCode(ctx context.Context, userUID string) error
}

// Handler обрабатывает HTTP-запросы повторной отправки кода.
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
// @Summary Повторная отправка кода подтверждения
// @Description Выпускает новый код и отправляет его на email учетной записи. Прежний код перестает действовать.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "uid учетной записи"
// @Success 200 {object} response.Response "Код отправлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Учетная запись не найдена"
// @Failure 409 {object} response.ErrorResponse "Email уже подтвержден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Превышен лимит отправки кодов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /resend-code [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resendcode"

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

	if err := h.authService.ResendCode(r.Context(), req.UserUID); err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, errs.ErrAlreadyVerified):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("email is already verified"))
		case errors.Is(err, errs.ErrTooManyRequests):
			log.Info("resend limit hit", slog.String("user_uid", req.UserUID))
			w.WriteHeader(http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("too many verification codes requested, try again later"))
		default:
			log.Error("failed to resend code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("verification code resent", slog.String("user_uid", req.UserUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "verification code sent to email",
	}))
}
