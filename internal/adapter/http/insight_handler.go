package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"seedflow-backend/internal/usecase/assistant"
	"seedflow-backend/internal/usecase/impact"
)

type ImpactHandler struct{ uc *impact.Usecase }

func NewImpactHandler(uc *impact.Usecase) *ImpactHandler { return &ImpactHandler{uc: uc} }

func (h *ImpactHandler) Stats(c echo.Context) error {
	st, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

type AssistantHandler struct{ a *assistant.Assistant }

func NewAssistantHandler(a *assistant.Assistant) *AssistantHandler { return &AssistantHandler{a: a} }

type messageReq struct {
	Content string `json:"content" validate:"required,max=500"`
}

func (h *AssistantHandler) Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"messages": []assistant.Message{h.a.Welcome()}})
}

func (h *AssistantHandler) Ask(c echo.Context) error {
	var req messageReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	user, bot, err := h.a.Reply(req.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": []assistant.Message{user, bot}})
}
