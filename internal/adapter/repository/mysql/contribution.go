package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	fundingDomain "seedflow-backend/internal/domain/funding"
)

type ContributionRepository struct{ db *gorm.DB }

func NewContributionRepository(db *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) Create(ctx context.Context, c *fundingDomain.Contribution) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContributionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*fundingDomain.Contribution, error) {
	var out fundingDomain.Contribution
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fundingDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ContributionRepository) ListByLender(ctx context.Context, lenderID string) ([]*fundingDomain.Contribution, error) {
	out := []*fundingDomain.Contribution{}
	err := r.db.WithContext(ctx).
		Where("lender_id = ?", lenderID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *ContributionRepository) ListLendersByListing(ctx context.Context, listingID string) ([]string, error) {
	out := []string{}
	err := r.db.WithContext(ctx).
		Model(&fundingDomain.Contribution{}).
		Where("listing_id = ? AND lender_id <> ''", listingID).
		Distinct().
		Order("lender_id").
		Pluck("lender_id", &out).Error
	return out, err
}
