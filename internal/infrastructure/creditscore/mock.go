package creditscore

import (
	"context"
	"hash/fnv"
	"strings"

	"seedflow-backend/internal/domain/credit"
)

var _ credit.Scorer = (*Mock)(nil)

// Mock grades a borrower from a hash of the normalized name, so the same
// borrower always gets the same suggestion. Fixed overrides the hash.
type Mock struct {
	Fixed credit.Grade
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Score(ctx context.Context, borrower string) (credit.Score, error) {
	if err := ctx.Err(); err != nil {
		return credit.Score{}, err
	}
	g := m.Fixed
	if g == "" {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(borrower))))
		g = credit.Grades[h.Sum32()%uint32(len(credit.Grades))]
	}
	apr, err := credit.SuggestedAPR(g)
	if err != nil {
		return credit.Score{}, err
	}
	return credit.Score{Grade: g, SuggestedAPR: apr}, nil
}
