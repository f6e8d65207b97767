package listing

import "context"

type Repository interface {
	Create(ctx context.Context, l *Listing) error
	List(ctx context.Context) ([]*Listing, error)
	GetByListingID(ctx context.Context, listingID string) (*Listing, error)
	// Locks the row inside a transaction.
	GetByListingIDForUpdate(ctx context.Context, listingID string) (*Listing, error)
	// AddFunded increases funded by amount, clamped to the listing amount.
	AddFunded(ctx context.Context, listingID string, amount float64) error
}
