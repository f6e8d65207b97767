package funding

import "context"

type Repository interface {
	Create(ctx context.Context, c *Contribution) error

	// Lookup used before crediting a listing on commit retry.
	GetByIdempotencyKey(ctx context.Context, key string) (*Contribution, error)

	// All contributions made from one wallet, oldest first.
	ListByLender(ctx context.Context, lenderID string) ([]*Contribution, error)

	// Distinct wallets holding a position in the listing.
	ListLendersByListing(ctx context.Context, listingID string) ([]string, error)
}
