package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"seedflow-backend/internal/marketplace"
)

type Handler struct{ store *marketplace.Store }

func NewHandler(store *marketplace.Store) *Handler { return &Handler{store: store} }

// Health reports liveness and whether the listing store has finished loading.
func (h *Handler) Health(c echo.Context) error {
	body := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if h.store != nil {
		body["listings_loaded"] = !h.store.Loading()
	}
	return c.JSON(http.StatusOK, body)
}
