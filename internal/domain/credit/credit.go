package credit

import (
	"context"
	"errors"
)

var ErrUnknownGrade = errors.New("unknown credit grade")

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

var Grades = []Grade{GradeA, GradeB, GradeC, GradeD}

var suggestedAPR = map[Grade]float64{
	GradeA: 8,
	GradeB: 12,
	GradeC: 15,
	GradeD: 18,
}

// SuggestedAPR is the highest APR a borrower of grade g may ask for.
func SuggestedAPR(g Grade) (float64, error) {
	apr, ok := suggestedAPR[g]
	if !ok {
		return 0, ErrUnknownGrade
	}
	return apr, nil
}

type Score struct {
	Grade        Grade   `json:"grade"`
	SuggestedAPR float64 `json:"suggested_apr"`
}

// Scorer rates a borrower before a listing is published.
type Scorer interface {
	Score(ctx context.Context, borrower string) (Score, error)
}
