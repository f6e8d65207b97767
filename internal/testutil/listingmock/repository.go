package listingmock

import (
	"context"

	domain "seedflow-backend/internal/domain/listing"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to a nil error; reads default to domain.ErrNotFound.
type Repo struct {
	CreateFn                  func(ctx context.Context, l *domain.Listing) error
	ListFn                    func(ctx context.Context) ([]*domain.Listing, error)
	GetByListingIDFn          func(ctx context.Context, listingID string) (*domain.Listing, error)
	GetByListingIDForUpdateFn func(ctx context.Context, listingID string) (*domain.Listing, error)
	AddFundedFn               func(ctx context.Context, listingID string, amount float64) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Listing) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) List(ctx context.Context) ([]*domain.Listing, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return []*domain.Listing{}, nil
}

func (m *Repo) GetByListingID(ctx context.Context, listingID string) (*domain.Listing, error) {
	if m.GetByListingIDFn != nil {
		return m.GetByListingIDFn(ctx, listingID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByListingIDForUpdate(ctx context.Context, listingID string) (*domain.Listing, error) {
	if m.GetByListingIDForUpdateFn != nil {
		return m.GetByListingIDForUpdateFn(ctx, listingID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) AddFunded(ctx context.Context, listingID string, amount float64) error {
	if m.AddFundedFn != nil {
		return m.AddFundedFn(ctx, listingID, amount)
	}
	return nil
}
