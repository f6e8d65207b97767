package portfolio

import "time"

type Status string

const (
	StatusCurrent   Status = "current"
	StatusDue       Status = "due"
	StatusCompleted Status = "completed"
)

type Position struct {
	ListingID         string     `json:"listing_id"`
	Borrower          string     `json:"borrower"`
	Contributed       float64    `json:"contributed"`
	Share             float64    `json:"share"`
	APR               float64    `json:"apr"`
	TermMonths        int        `json:"term_months"`
	ExpectedReturn    float64    `json:"expected_return"`
	NextPaymentDate   *time.Time `json:"next_payment_date,omitempty"`
	NextPaymentAmount float64    `json:"next_payment_amount"`
	Status            Status     `json:"status"`
	InsurancePayouts  float64    `json:"insurance_payouts"`
}

type Totals struct {
	Invested         float64 `json:"invested"`
	ExpectedReturn   float64 `json:"expected_return"`
	InsurancePayouts float64 `json:"insurance_payouts"`
	ActiveLoans      int     `json:"active_loans"`
}

type Rewards struct {
	Available float64 `json:"available"`
	Staked    float64 `json:"staked"`
	APR       float64 `json:"apr"`
	Boost     float64 `json:"boost"`
	Level     int     `json:"level"`
	Progress  int     `json:"progress"`
}

type PortfolioDTO struct {
	LenderID  string     `json:"lender_id"`
	Positions []Position `json:"positions"`
	Totals    Totals     `json:"totals"`
	Rewards   Rewards    `json:"rewards"`
}

type ClaimDTO struct {
	Claimed   float64 `json:"claimed"`
	Available float64 `json:"available"`
}
