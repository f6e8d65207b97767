package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"seedflow-backend/internal/adapter/middleware"
	"seedflow-backend/internal/domain/credit"
	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/domain/oracle"
	"seedflow-backend/internal/domain/wallet"
	"seedflow-backend/internal/marketplace"
	"seedflow-backend/internal/usecase/assistant"
	"seedflow-backend/internal/usecase/funding"
	"seedflow-backend/internal/usecase/intake"
	"seedflow-backend/internal/usecase/portfolio"
)

// statusFor maps domain errors to HTTP codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, listing.ErrNotFound), errors.Is(err, funding.ErrWizardNotFound):
		return http.StatusNotFound
	case errors.Is(err, marketplace.ErrLoading):
		return http.StatusServiceUnavailable
	case errors.Is(err, marketplace.ErrUnknownSortKey),
		errors.Is(err, listing.ErrInvalidListing),
		errors.Is(err, intake.ErrInvalidInput),
		errors.Is(err, wallet.ErrUnknownProvider),
		errors.Is(err, credit.ErrUnknownGrade),
		errors.Is(err, assistant.ErrEmptyMessage),
		errors.Is(err, oracle.ErrUnknownEventType):
		return http.StatusBadRequest
	case errors.Is(err, funding.ErrAmountOutOfRange), errors.Is(err, intake.ErrAPRAboveSuggested):
		return http.StatusUnprocessableEntity
	case errors.Is(err, funding.ErrInvalidTransition),
		errors.Is(err, funding.ErrCommitInFlight),
		errors.Is(err, funding.ErrFullyFunded),
		errors.Is(err, portfolio.ErrNothingToClaim),
		errors.Is(err, oracle.ErrNotCovered):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrNotConnected):
		return http.StatusUnauthorized
	case errors.Is(err, funding.ErrSettlementFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError renders known domain errors. Anything else is handed to echo so
// the request logger records it and ErrorHandler hides the detail.
func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		return err
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

// bindValid binds and validates req. It writes the 400/422 response itself
// and reports whether the handler should continue.
func bindValid(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func walletHeader(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(middleware.HeaderWalletID))
}

// ErrorHandler renders every unhandled error as ErrorResponse.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			log.Error("unhandled error",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, ErrorResponse{Error: msg})
	}
}

func splitQuery(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
