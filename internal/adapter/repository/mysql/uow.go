package mysql

import (
	"context"

	"gorm.io/gorm"

	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/domain/uow"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Listings:      &ListingRepository{db: tx},
		Contributions: &ContributionRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
}

func (u *GormUoW) WithinListingTx(ctx context.Context, listingID string, fn func(r uow.Repos, l *listing.Listing) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		// lock the listing row up-front to prevent races
		l, err := r.Listings.GetByListingIDForUpdate(ctx, listingID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
