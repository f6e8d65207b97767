package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"seedflow-backend/pkg/id"
)

// Mock stands in for the chain: it waits Delay and returns a fabricated
// base58 signature. It never moves funds.
type Mock struct {
	Delay time.Duration
	log   *zap.Logger
}

func NewMock(delay time.Duration, log *zap.Logger) *Mock {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mock{Delay: delay, log: log}
}

func (m *Mock) Submit(ctx context.Context, listingID string, amount float64) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("settlement amount must be positive, got %.2f", amount)
	}
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	tx := id.NewTxHash()
	m.log.Debug("settlement submitted",
		zap.String("listing_id", listingID),
		zap.Float64("amount", amount),
		zap.String("tx_id", tx))
	return tx, nil
}
