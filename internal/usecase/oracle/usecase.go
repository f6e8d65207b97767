package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"seedflow-backend/internal/domain/funding"
	"seedflow-backend/internal/domain/listing"
	domain "seedflow-backend/internal/domain/oracle"
	"seedflow-backend/internal/marketplace"
)

// DefaultPayout is used when a trigger does not name an amount.
const DefaultPayout = 50

type RecordInput struct {
	Type      string
	ListingID string
	Amount    float64
}

type InboxDTO struct {
	Events []domain.Event `json:"events"`
	Unread int64          `json:"unread"`
}

type Usecase struct {
	store         *marketplace.Store
	contributions funding.Repository
	inbox         domain.Inbox
	log           *zap.Logger
	now           func() time.Time
}

func NewUsecase(store *marketplace.Store, contributions funding.Repository, inbox domain.Inbox, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		store:         store,
		contributions: contributions,
		inbox:         inbox,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Record stores a trigger for a covered listing and notifies its lenders.
func (u *Usecase) Record(ctx context.Context, in RecordInput) (*domain.Event, error) {
	tag := listing.Tag(in.Type)
	if !tag.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEventType, in.Type)
	}
	l, err := u.store.Get(in.ListingID)
	if err != nil {
		return nil, err
	}
	if !l.Insurance.Has(tag) {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrNotCovered, tag, l.ListingID)
	}

	amount := in.Amount
	if amount <= 0 {
		amount = DefaultPayout
	}
	lenders, err := u.contributions.ListLendersByListing(ctx, l.ListingID)
	if err != nil {
		return nil, fmt.Errorf("list lenders: %w", err)
	}

	ev := domain.Event{
		ID:         uuid.NewString(),
		Type:       tag,
		ListingID:  l.ListingID,
		Borrower:   l.Name,
		Amount:     amount,
		OccurredAt: u.now(),
	}
	if err := u.inbox.Append(ctx, ev, lenders); err != nil {
		return nil, fmt.Errorf("append oracle event: %w", err)
	}
	u.log.Info("oracle event recorded",
		zap.String("type", string(tag)),
		zap.String("listing_id", l.ListingID),
		zap.Int("lenders", len(lenders)))
	return &ev, nil
}

func (u *Usecase) Events(ctx context.Context) ([]domain.Event, error) {
	return u.inbox.Events(ctx)
}

func (u *Usecase) Inbox(ctx context.Context, lenderID string) (*InboxDTO, error) {
	evs, unread, err := u.inbox.Inbox(ctx, lenderID)
	if err != nil {
		return nil, err
	}
	return &InboxDTO{Events: evs, Unread: unread}, nil
}

func (u *Usecase) MarkRead(ctx context.Context, lenderID string) error {
	return u.inbox.MarkRead(ctx, lenderID)
}
