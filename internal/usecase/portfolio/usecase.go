package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"seedflow-backend/internal/domain/funding"
	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/domain/oracle"
	"seedflow-backend/internal/marketplace"
)

var ErrNothingToClaim = errors.New("no rewards to claim")

const (
	dueWindow = 7 * 24 * time.Hour

	rewardsStaked = 500
	rewardsAPR    = 8
	rewardsBoost  = 2.5
	// invested currency per rewards level
	levelSize = 100
)

// Usecase builds a lender's portfolio from their contributions and the
// current listing store. Claimed rewards are tracked in process.
type Usecase struct {
	contributions funding.Repository
	store         *marketplace.Store
	inbox         oracle.Inbox
	log           *zap.Logger
	claimDelay    time.Duration
	now           func() time.Time

	mu      sync.Mutex
	claimed map[string]float64
}

func NewUsecase(contributions funding.Repository, store *marketplace.Store, inbox oracle.Inbox, claimDelay time.Duration, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		contributions: contributions,
		store:         store,
		inbox:         inbox,
		log:           log,
		claimDelay:    claimDelay,
		now:           func() time.Time { return time.Now().UTC() },
		claimed:       map[string]float64{},
	}
}

func (u *Usecase) Get(ctx context.Context, lenderID string) (*PortfolioDTO, error) {
	cs, err := u.contributions.ListByLender(ctx, lenderID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	events, err := u.inbox.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("oracle events: %w", err)
	}

	byListing := map[string]decimal.Decimal{}
	order := []string{}
	for _, c := range cs {
		if _, ok := byListing[c.ListingID]; !ok {
			order = append(order, c.ListingID)
		}
		byListing[c.ListingID] = byListing[c.ListingID].Add(decimal.NewFromFloat(c.Amount))
	}

	now := u.now()
	out := &PortfolioDTO{LenderID: lenderID, Positions: []Position{}}
	var invested, expected, payouts decimal.Decimal
	for _, id := range order {
		l, err := u.store.Get(id)
		if errors.Is(err, listing.ErrNotFound) {
			u.log.Warn("contribution for unknown listing", zap.String("listing_id", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		p := position(l, byListing[id], events, now)
		out.Positions = append(out.Positions, p)

		invested = invested.Add(byListing[id])
		expected = expected.Add(decimal.NewFromFloat(p.ExpectedReturn))
		payouts = payouts.Add(decimal.NewFromFloat(p.InsurancePayouts))
		if p.Status != StatusCompleted {
			out.Totals.ActiveLoans++
		}
	}
	sort.SliceStable(out.Positions, func(i, j int) bool {
		return out.Positions[i].Contributed > out.Positions[j].Contributed
	})

	out.Totals.Invested = invested.Round(2).InexactFloat64()
	out.Totals.ExpectedReturn = expected.Round(2).InexactFloat64()
	out.Totals.InsurancePayouts = payouts.Round(2).InexactFloat64()
	out.Rewards = u.rewards(lenderID, out.Totals.Invested)
	return out, nil
}

func position(l *listing.Listing, contributed decimal.Decimal, events []oracle.Event, now time.Time) Position {
	share := decimal.Zero
	if l.Amount > 0 {
		share = contributed.Div(decimal.NewFromFloat(l.Amount))
	}
	apr := decimal.NewFromFloat(l.APR).Div(decimal.NewFromInt(100))

	p := Position{
		ListingID:      l.ListingID,
		Borrower:       l.Name,
		Contributed:    contributed.Round(2).InexactFloat64(),
		Share:          share.Round(4).InexactFloat64(),
		APR:            l.APR,
		TermMonths:     l.TermMonths,
		ExpectedReturn: contributed.Mul(decimal.NewFromInt(1).Add(apr)).Round(2).InexactFloat64(),
		Status:         StatusCompleted,
	}
	if next, ok := l.NextInstallment(now); ok {
		due := next.DueAt
		p.NextPaymentDate = &due
		p.NextPaymentAmount = decimal.NewFromFloat(next.Amount).Mul(share).Round(2).InexactFloat64()
		p.Status = StatusCurrent
		if due.Sub(now) <= dueWindow {
			p.Status = StatusDue
		}
	}

	var payout decimal.Decimal
	for _, ev := range events {
		if ev.ListingID == l.ListingID && l.Insurance.Has(ev.Type) {
			payout = payout.Add(decimal.NewFromFloat(ev.Amount).Mul(share))
		}
	}
	p.InsurancePayouts = payout.Round(2).InexactFloat64()
	return p
}

// rewards accrue one SEED per whole unit invested, minus what was claimed.
func (u *Usecase) rewards(lenderID string, invested float64) Rewards {
	u.mu.Lock()
	claimed := u.claimed[lenderID]
	u.mu.Unlock()

	whole := math.Floor(invested)
	return Rewards{
		Available: math.Max(0, whole-claimed),
		Staked:    rewardsStaked,
		APR:       rewardsAPR,
		Boost:     rewardsBoost,
		Level:     1 + int(whole)/levelSize,
		Progress:  int(whole) % levelSize,
	}
}

// ClaimRewards moves the available balance to claimed after the simulated delay.
func (u *Usecase) ClaimRewards(ctx context.Context, lenderID string) (*ClaimDTO, error) {
	dto, err := u.Get(ctx, lenderID)
	if err != nil {
		return nil, err
	}
	amount := dto.Rewards.Available
	if amount <= 0 {
		return nil, ErrNothingToClaim
	}

	if u.claimDelay > 0 {
		t := time.NewTimer(u.claimDelay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// re-check under the lock; a concurrent claim may have taken the balance
	whole := math.Floor(dto.Totals.Invested)
	u.mu.Lock()
	amount = whole - u.claimed[lenderID]
	if amount <= 0 {
		u.mu.Unlock()
		return nil, ErrNothingToClaim
	}
	u.claimed[lenderID] = whole
	u.mu.Unlock()
	u.log.Info("rewards claimed", zap.String("lender_id", lenderID), zap.Float64("amount", amount))
	return &ClaimDTO{Claimed: amount, Available: 0}, nil
}
