package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	listingDomain "seedflow-backend/internal/domain/listing"
)

type ListingRepository struct{ db *gorm.DB }

func NewListingRepository(db *gorm.DB) *ListingRepository { return &ListingRepository{db: db} }

func (r *ListingRepository) Create(ctx context.Context, l *listingDomain.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// List returns every listing, newest first.
func (r *ListingRepository) List(ctx context.Context) ([]*listingDomain.Listing, error) {
	out := []*listingDomain.Listing{}
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *ListingRepository) GetByListingID(ctx context.Context, listingID string) (*listingDomain.Listing, error) {
	var out listingDomain.Listing
	res := r.db.WithContext(ctx).Where("listing_id = ?", listingID).First(&out)
	return notFound(&out, res.Error)
}

func (r *ListingRepository) GetByListingIDForUpdate(ctx context.Context, listingID string) (*listingDomain.Listing, error) {
	var out listingDomain.Listing
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("listing_id = ?", listingID).
		First(&out)
	return notFound(&out, res.Error)
}

// AddFunded never raises funded above amount. Callers lock the row first.
func (r *ListingRepository) AddFunded(ctx context.Context, listingID string, amount float64) error {
	return r.db.WithContext(ctx).
		Model(&listingDomain.Listing{}).
		Where("listing_id = ?", listingID).
		Update("funded", gorm.Expr("CASE WHEN funded + ? > amount THEN amount ELSE funded + ? END", amount, amount)).
		Error
}

func notFound(l *listingDomain.Listing, err error) (*listingDomain.Listing, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, listingDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
