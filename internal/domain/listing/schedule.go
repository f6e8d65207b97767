package listing

import (
	"time"

	"github.com/shopspring/decimal"
)

// repaymentMarkup is applied to each principal slice of the schedule.
var repaymentMarkup = decimal.RequireFromString("1.1")

type Installment struct {
	Number    int       `json:"number"`
	DueAt     time.Time `json:"due_at"`
	Amount    float64   `json:"amount"`
	Principal float64   `json:"principal"`
	Paid      bool      `json:"paid"`
}

// Schedule splits the principal into TermMonths monthly installments starting one
// month after CreatedAt. Installments dated before now are reported as paid.
func (l *Listing) Schedule(now time.Time) []Installment {
	if l.TermMonths <= 0 {
		return nil
	}
	principal := decimal.NewFromFloat(l.Amount).Div(decimal.NewFromInt(int64(l.TermMonths)))
	amount := principal.Mul(repaymentMarkup).Round(2)
	principal = principal.Round(2)

	out := make([]Installment, 0, l.TermMonths)
	for i := 0; i < l.TermMonths; i++ {
		due := l.CreatedAt.AddDate(0, i+1, 0)
		out = append(out, Installment{
			Number:    i + 1,
			DueAt:     due,
			Amount:    amount.InexactFloat64(),
			Principal: principal.InexactFloat64(),
			Paid:      due.Before(now),
		})
	}
	return out
}

// NextInstallment returns the first unpaid installment, or false once the schedule is done.
func (l *Listing) NextInstallment(now time.Time) (Installment, bool) {
	for _, in := range l.Schedule(now) {
		if !in.Paid {
			return in, true
		}
	}
	return Installment{}, false
}
