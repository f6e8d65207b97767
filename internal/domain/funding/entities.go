package funding

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("contribution not found")

// Contribution is one settled funding commit. IdempotencyKey guards against a
// retried commit crediting the listing twice.
type Contribution struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ContributionID string    `gorm:"column:contribution_id;type:char(36);not null;uniqueIndex:ux_contributions_contribution_id"`
	WizardID       string    `gorm:"column:wizard_id;type:char(36);not null;index"`
	ListingID      string    `gorm:"column:listing_id;size:32;not null;index"`
	LenderID       string    `gorm:"column:lender_id;size:32;not null;index"`
	Amount         float64   `gorm:"column:amount;type:decimal(18,2);not null"`
	AutoReinvest   bool      `gorm:"column:auto_reinvest"`
	TxID           string    `gorm:"column:tx_id;size:128;not null"`
	IdempotencyKey string    `gorm:"column:idempotency_key;size:160;not null;uniqueIndex:ux_contributions_idempotency_key"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Contribution) TableName() string { return "contributions" }
