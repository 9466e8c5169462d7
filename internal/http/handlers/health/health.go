// Package health реализует HTTP-обработчик проверки работоспособности.
package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/bagdatov/carmarket/internal/http/response"
)

// Handler обрабатывает запросы проверки работоспособности.
type Handler struct {
	service string
	env     string
}

// New создает новый экземпляр Handler.
func New(service, env string) *Handler {
	return &Handler{service: service, env: env}
}

// ServeHTTP godoc
// @Summary Проверка работоспособности
// @Tags Service
// @Produce  json
// @Success 200 {object} response.Response "Сервис работает"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]any{
		"service": h.service,
		"env":     h.env,
	}))
}
