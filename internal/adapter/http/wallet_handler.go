package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"seedflow-backend/internal/domain/wallet"
	walletmock "seedflow-backend/internal/infrastructure/wallet"
)

type WalletHandler struct{ sessions *walletmock.Sessions }

func NewWalletHandler(s *walletmock.Sessions) *WalletHandler { return &WalletHandler{sessions: s} }

type connectReq struct {
	Provider string `json:"provider" validate:"required,oneof=phantom solflare"`
}

type walletResp struct {
	State        wallet.State `json:"state"`
	Provider     string       `json:"provider,omitempty"`
	Address      string       `json:"address,omitempty"`
	ShortAddress string       `json:"short_address,omitempty"`
	Balance      float64      `json:"balance"`
}

func toWalletResp(w wallet.Wallet, provider string) walletResp {
	return walletResp{
		State:        w.State(),
		Provider:     provider,
		Address:      w.Address(),
		ShortAddress: wallet.ShortAddress(w.Address()),
		Balance:      w.Balance(),
	}
}

func (h *WalletHandler) Connect(c echo.Context) error {
	var req connectReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	w, err := h.sessions.Connect(c.Request().Context(), req.Provider)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toWalletResp(w, w.Provider()))
}

// Get reports the wallet named by Sf-Wallet-Id, or a disconnected state.
func (h *WalletHandler) Get(c echo.Context) error {
	addr := walletHeader(c)
	if addr == "" {
		return c.JSON(http.StatusOK, walletResp{State: wallet.StateDisconnected})
	}
	w, err := h.sessions.Get(addr)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toWalletResp(w, w.Provider()))
}

func (h *WalletHandler) Disconnect(c echo.Context) error {
	addr := walletHeader(c)
	if addr == "" {
		return writeError(c, wallet.ErrNotConnected)
	}
	if err := h.sessions.Disconnect(c.Request().Context(), addr); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, walletResp{State: wallet.StateDisconnected})
}
