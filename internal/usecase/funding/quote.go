package funding

import (
	"time"

	"github.com/shopspring/decimal"

	"seedflow-backend/internal/domain/listing"
)

var (
	// USD per SOL used for the displayed conversion.
	solRate = decimal.NewFromInt(20)
	// Flat network fee in SOL.
	txFeeSOL = decimal.RequireFromString("0.000005")
	hundred  = decimal.NewFromInt(100)
)

type Quote struct {
	Amount            float64   `json:"amount"`
	SOL               float64   `json:"sol"`
	FeeSOL            float64   `json:"fee_sol"`
	TotalSOL          float64   `json:"total_sol"`
	APR               float64   `json:"apr"`
	ExpectedReturn    float64   `json:"expected_return"`
	MaturityDate      time.Time `json:"maturity_date"`
	InsuranceCoverage int       `json:"insurance_coverage"`
}

func NewQuote(l *listing.Listing, amount float64) Quote {
	amt := decimal.NewFromFloat(amount)
	sol := amt.Div(solRate)
	apr := decimal.NewFromFloat(l.APR)
	ret := amt.Mul(decimal.NewFromInt(1).Add(apr.Div(hundred)))

	return Quote{
		Amount:            amt.Round(2).InexactFloat64(),
		SOL:               sol.Round(4).InexactFloat64(),
		FeeSOL:            txFeeSOL.InexactFloat64(),
		TotalSOL:          sol.Add(txFeeSOL).Round(6).InexactFloat64(),
		APR:               l.APR,
		ExpectedReturn:    ret.Round(2).InexactFloat64(),
		MaturityDate:      l.MaturityDate(),
		InsuranceCoverage: l.InsuranceCoverage(),
	}
}
