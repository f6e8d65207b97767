package mysql

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	listingDomain "seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/domain/uow"
)

// ListingSource feeds the marketplace store from the listings table. An empty
// table is filled from Seed first.
type ListingSource struct {
	repo *ListingRepository
	uow  *GormUoW
	Seed func() ([]*listingDomain.Listing, error)
	log  *zap.Logger
}

func NewListingSource(repo *ListingRepository, tx *GormUoW, seed func() ([]*listingDomain.Listing, error), log *zap.Logger) *ListingSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListingSource{repo: repo, uow: tx, Seed: seed, log: log}
}

func (s *ListingSource) Listings(ctx context.Context) ([]*listingDomain.Listing, error) {
	ls, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	if len(ls) > 0 || s.Seed == nil {
		return ls, nil
	}

	seed, err := s.Seed()
	if err != nil {
		return nil, fmt.Errorf("seed listings: %w", err)
	}
	if err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		for _, l := range seed {
			if err := r.Listings.Create(ctx, l); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("insert seed listings: %w", err)
	}
	s.log.Info("seeded listings table", zap.Int("count", len(seed)))
	return s.repo.List(ctx)
}
