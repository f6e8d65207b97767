package uow

import (
	"context"

	"seedflow-backend/internal/domain/funding"
	"seedflow-backend/internal/domain/listing"
)

type Repos struct {
	Listings      listing.Repository
	Contributions funding.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock listing first, then pass it in
	WithinListingTx(ctx context.Context, listingID string, fn func(r Repos, l *listing.Listing) error) error
}
