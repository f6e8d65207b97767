package oracle

import (
	"context"
	"errors"
	"time"

	"seedflow-backend/internal/domain/listing"
)

var (
	ErrNotCovered       = errors.New("listing has no cover for this event")
	ErrUnknownEventType = errors.New("unknown oracle event type")
)

// Event is a weather-oracle trigger that paid out on a covered listing.
type Event struct {
	ID         string      `json:"id"`
	Type       listing.Tag `json:"type"`
	ListingID  string      `json:"listing_id"`
	Borrower   string      `json:"borrower"`
	Amount     float64     `json:"amount"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Inbox stores oracle events globally and fans them out to lender inboxes.
type Inbox interface {
	Append(ctx context.Context, ev Event, lenders []string) error
	Events(ctx context.Context) ([]Event, error)
	Inbox(ctx context.Context, lenderID string) ([]Event, int64, error)
	MarkRead(ctx context.Context, lenderID string) error
}
