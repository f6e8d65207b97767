package contributionmock

import (
	"context"

	domain "seedflow-backend/internal/domain/funding"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn               func(ctx context.Context, c *domain.Contribution) error
	GetByIdempotencyKeyFn  func(ctx context.Context, key string) (*domain.Contribution, error)
	ListByLenderFn         func(ctx context.Context, lenderID string) ([]*domain.Contribution, error)
	ListLendersByListingFn func(ctx context.Context, listingID string) ([]string, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.Contribution) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Contribution, error) {
	if m.GetByIdempotencyKeyFn != nil {
		return m.GetByIdempotencyKeyFn(ctx, key)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByLender(ctx context.Context, lenderID string) ([]*domain.Contribution, error) {
	if m.ListByLenderFn != nil {
		return m.ListByLenderFn(ctx, lenderID)
	}
	return []*domain.Contribution{}, nil
}

func (m *Repo) ListLendersByListing(ctx context.Context, listingID string) ([]string, error) {
	if m.ListLendersByListingFn != nil {
		return m.ListLendersByListingFn(ctx, listingID)
	}
	return []string{}, nil
}
