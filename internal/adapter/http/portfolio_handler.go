package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"seedflow-backend/internal/domain/wallet"
	walletmock "seedflow-backend/internal/infrastructure/wallet"
	"seedflow-backend/internal/usecase/oracle"
	"seedflow-backend/internal/usecase/portfolio"
)

// connected returns the Sf-Wallet-Id address if it names a live session.
func connected(c echo.Context, sessions *walletmock.Sessions) (string, error) {
	addr := walletHeader(c)
	if addr == "" {
		return "", wallet.ErrNotConnected
	}
	if _, err := sessions.Get(addr); err != nil {
		return "", err
	}
	return addr, nil
}

type PortfolioHandler struct {
	uc       *portfolio.Usecase
	sessions *walletmock.Sessions
}

func NewPortfolioHandler(uc *portfolio.Usecase, s *walletmock.Sessions) *PortfolioHandler {
	return &PortfolioHandler{uc: uc, sessions: s}
}

func (h *PortfolioHandler) Get(c echo.Context) error {
	lender, err := connected(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), lender)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PortfolioHandler) ClaimRewards(c echo.Context) error {
	lender, err := connected(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.ClaimRewards(c.Request().Context(), lender)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type OracleHandler struct {
	uc       *oracle.Usecase
	sessions *walletmock.Sessions
}

func NewOracleHandler(uc *oracle.Usecase, s *walletmock.Sessions) *OracleHandler {
	return &OracleHandler{uc: uc, sessions: s}
}

type oracleEventReq struct {
	Type      string  `json:"type"       validate:"required,insurance"`
	ListingID string  `json:"listing_id" validate:"required,hex32"`
	Amount    float64 `json:"amount"     validate:"gte=0,dec2"`
}

func (h *OracleHandler) Record(c echo.Context) error {
	var req oracleEventReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ev, err := h.uc.Record(c.Request().Context(), oracle.RecordInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

func (h *OracleHandler) Events(c echo.Context) error {
	evs, err := h.uc.Events(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"events": evs})
}

func (h *OracleHandler) Notifications(c echo.Context) error {
	lender, err := connected(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Inbox(c.Request().Context(), lender)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *OracleHandler) MarkRead(c echo.Context) error {
	lender, err := connected(c, h.sessions)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.MarkRead(c.Request().Context(), lender); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
