package intake

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"seedflow-backend/internal/domain/credit"
	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/marketplace"
	"seedflow-backend/pkg/id"
)

var (
	ErrAPRAboveSuggested = errors.New("apr is above the suggested rate")
	ErrInvalidInput      = errors.New("invalid intake input")
)

// Usecase publishes borrower listings. repo may be nil when the store is
// not backed by a database.
type Usecase struct {
	scorer  credit.Scorer
	repo    listing.Repository
	store   *marketplace.Store
	log     *zap.Logger
	latency time.Duration
	now     func() time.Time
}

func NewUsecase(scorer credit.Scorer, repo listing.Repository, store *marketplace.Store, latency time.Duration, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		scorer:  scorer,
		repo:    repo,
		store:   store,
		log:     log,
		latency: latency,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Suggest returns the credit grade and the APR ceiling for a borrower.
func (u *Usecase) Suggest(ctx context.Context, borrower string) (credit.Score, error) {
	return u.scorer.Score(ctx, borrower)
}

func (u *Usecase) Create(ctx context.Context, in CreateListingInput) (*listing.Listing, error) {
	if err := checkLimits(in); err != nil {
		return nil, err
	}
	score, err := u.scorer.Score(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("credit score: %w", err)
	}
	if in.APR > score.SuggestedAPR {
		return nil, fmt.Errorf("%w: %.2f > %.2f (grade %s)", ErrAPRAboveSuggested, in.APR, score.SuggestedAPR, score.Grade)
	}

	tags := make([]listing.Tag, 0, len(in.Insurance))
	for _, t := range in.Insurance {
		tags = append(tags, listing.Tag(t))
	}
	l, err := listing.New(listing.Params{
		ListingID:  id.NewID32(),
		Name:       in.Name,
		Story:      in.Story,
		Country:    in.Country,
		Sector:     listing.Sector(in.Sector),
		Amount:     in.Amount,
		APR:        in.APR,
		TermMonths: in.TermMonths,
		Insurance:  tags,
		CreatedAt:  u.now(),
	})
	if err != nil {
		return nil, err
	}

	if err := sleep(ctx, u.latency); err != nil {
		return nil, err
	}
	if u.repo != nil {
		if err := u.repo.Create(ctx, l); err != nil {
			return nil, fmt.Errorf("persist listing: %w", err)
		}
	}
	if err := u.store.Add(l); err != nil {
		return nil, err
	}
	u.log.Info("listing published",
		zap.String("listing_id", l.ListingID),
		zap.String("grade", string(score.Grade)),
		zap.Float64("amount", l.Amount))
	return l, nil
}

func checkLimits(in CreateListingInput) error {
	switch {
	case in.Amount < MinAmount || in.Amount > MaxAmount:
		return fmt.Errorf("%w: amount must be between %d and %d", ErrInvalidInput, MinAmount, MaxAmount)
	case math.Mod(in.Amount, AmountStep) != 0:
		return fmt.Errorf("%w: amount must be a multiple of %d", ErrInvalidInput, AmountStep)
	case in.TermMonths < MinTerm || in.TermMonths > MaxTerm:
		return fmt.Errorf("%w: term must be between %d and %d months", ErrInvalidInput, MinTerm, MaxTerm)
	case in.APR < MinAPR:
		return fmt.Errorf("%w: apr must be at least %d", ErrInvalidInput, MinAPR)
	case utf8.RuneCountInString(in.Story) > listing.MaxStoryLen:
		return fmt.Errorf("%w: story longer than %d characters", ErrInvalidInput, listing.MaxStoryLen)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
