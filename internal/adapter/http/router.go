package http

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Health    *Handler
	Listings  *ListingHandler
	Fundings  *FundingHandler
	Wallet    *WalletHandler
	Portfolio *PortfolioHandler
	Oracle    *OracleHandler
	Impact    *ImpactHandler
	Assistant *AssistantHandler
}

// NewEcho builds the server with the validator, error handler and the given
// middleware (request logging, idempotency) installed.
func NewEcho(log *zap.Logger, mws ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(mws...)
	return e
}

func Register(e *echo.Echo, h Handlers) {
	e.GET("/health", h.Health.Health)

	e.GET("/listings", h.Listings.List)
	e.GET("/listings/suggestion", h.Listings.Suggest)
	e.GET("/listings/:id", h.Listings.Get)
	e.POST("/listings", h.Listings.Create)

	f := e.Group("/fundings")
	f.POST("", h.Fundings.Start)
	f.GET("/:id", h.Fundings.Get)
	f.PUT("/:id/amount", h.Fundings.SetAmount)
	f.POST("/:id/continue", h.Fundings.Continue)
	f.POST("/:id/back", h.Fundings.Back)
	f.POST("/:id/confirm", h.Fundings.Confirm)
	f.POST("/:id/cancel", h.Fundings.Cancel)

	e.GET("/wallet", h.Wallet.Get)
	e.POST("/wallet/connect", h.Wallet.Connect)
	e.POST("/wallet/disconnect", h.Wallet.Disconnect)

	e.GET("/portfolio", h.Portfolio.Get)
	e.POST("/portfolio/rewards/claim", h.Portfolio.ClaimRewards)

	e.GET("/impact", h.Impact.Stats)

	e.GET("/assistant/messages", h.Assistant.Welcome)
	e.POST("/assistant/messages", h.Assistant.Ask)

	e.GET("/notifications", h.Oracle.Notifications)
	e.POST("/notifications/read", h.Oracle.MarkRead)
	e.GET("/oracle/events", h.Oracle.Events)
	e.POST("/oracle/events", h.Oracle.Record)
}
