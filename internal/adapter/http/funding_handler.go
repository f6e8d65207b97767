package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	walletmock "seedflow-backend/internal/infrastructure/wallet"
	"seedflow-backend/internal/usecase/funding"
)

type FundingHandler struct {
	uc       *funding.Usecase
	sessions *walletmock.Sessions
}

func NewFundingHandler(uc *funding.Usecase, sessions *walletmock.Sessions) *FundingHandler {
	return &FundingHandler{uc: uc, sessions: sessions}
}

type startFundingReq struct {
	ListingID    string  `json:"listing_id"     validate:"required,hex32"`
	Amount       float64 `json:"amount"         validate:"dec2"`
	QuickFundPct int     `json:"quick_fund_pct" validate:"omitempty,gte=10,lte=100"`
}

type amountReq struct {
	Amount       float64 `json:"amount"        validate:"dec2"`
	AutoReinvest *bool   `json:"auto_reinvest"`
}

// lender resolves Sf-Wallet-Id. Funding without a wallet is allowed; a wallet
// that is named must be connected.
func (h *FundingHandler) lender(c echo.Context) (string, error) {
	addr := walletHeader(c)
	if addr == "" {
		return "", nil
	}
	if _, err := h.sessions.Get(addr); err != nil {
		return "", err
	}
	return addr, nil
}

func (h *FundingHandler) Start(c echo.Context) error {
	var req startFundingReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	lender, err := h.lender(c)
	if err != nil {
		return writeError(c, err)
	}
	dto, err := h.uc.Start(c.Request().Context(), funding.StartInput{
		ListingID:    req.ListingID,
		LenderID:     lender,
		Amount:       req.Amount,
		QuickFundPct: req.QuickFundPct,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *FundingHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *FundingHandler) SetAmount(c echo.Context) error {
	var req amountReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.SetAmount(c.Request().Context(), c.Param("id"), funding.AmountInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *FundingHandler) Continue(c echo.Context) error {
	return h.transition(c, h.uc.Continue)
}

func (h *FundingHandler) Back(c echo.Context) error {
	return h.transition(c, h.uc.Back)
}

func (h *FundingHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.uc.Cancel)
}

func (h *FundingHandler) Confirm(c echo.Context) error {
	r, err := h.uc.Confirm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *FundingHandler) transition(c echo.Context, fn func(ctx context.Context, id string) (*funding.WizardDTO, error)) error {
	dto, err := fn(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
