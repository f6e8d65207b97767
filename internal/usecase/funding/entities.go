package funding

import (
	"time"
)

type StartInput struct {
	ListingID string
	LenderID  string
	// Zero means the default draft amount.
	Amount float64
	// When set, overrides Amount with remaining × pct/100.
	QuickFundPct int
}

type AmountInput struct {
	Amount       float64
	AutoReinvest *bool
}

type WizardDTO struct {
	ID           string   `json:"id"`
	ListingID    string   `json:"listing_id"`
	LenderID     string   `json:"lender_id,omitempty"`
	Step         Step     `json:"step"`
	Amount       float64  `json:"amount"`
	MinAmount    float64  `json:"min_amount"`
	MaxAmount    float64  `json:"max_amount"`
	AutoReinvest bool     `json:"auto_reinvest"`
	Actions      []Action `json:"actions"`
	LastError    string   `json:"last_error,omitempty"`
	Quote        *Quote   `json:"quote,omitempty"`
	Receipt      *Receipt `json:"receipt,omitempty"`
}

type Receipt struct {
	ContributionID string    `json:"contribution_id"`
	WizardID       string    `json:"wizard_id"`
	ListingID      string    `json:"listing_id"`
	TxID           string    `json:"tx_id"`
	ExplorerURL    string    `json:"explorer_url"`
	Requested      float64   `json:"requested"`
	Applied        float64   `json:"applied"`
	AutoReinvest   bool      `json:"auto_reinvest"`
	Quote          Quote     `json:"quote"`
	SettledAt      time.Time `json:"settled_at"`
}
