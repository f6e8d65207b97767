package funding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "seedflow-backend/internal/domain/funding"
	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/domain/uow"
	"seedflow-backend/internal/marketplace"
)

const (
	DefaultPlatformCap = 500
	DefaultAmount      = 50
	DefaultWizardTTL   = 30 * time.Minute
	// Lower bound of the amount slider; a hint for clients, not enforced.
	MinAmount = 10

	explorerURLFormat = "https://solscan.io/tx/%s?cluster=devnet"
)

// Settlement submits a funding transfer and returns its transaction id.
type Settlement interface {
	Submit(ctx context.Context, listingID string, amount float64) (string, error)
}

type Options struct {
	PlatformCap float64
	// WizardTTL bounds how long wizards and in-memory receipts are kept.
	// Older commits still replay from the contributions table.
	WizardTTL time.Duration
	Now       func() time.Time
}

// Usecase drives funding wizards against the listing store. The unit of work
// is optional; without it contributions are only kept in memory.
type Usecase struct {
	store      *marketplace.Store
	settlement Settlement
	uow        uow.UnitOfWork
	registry   *Registry
	log        *zap.Logger

	cap float64
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	ledger map[string]Receipt
}

func NewUsecase(store *marketplace.Store, s Settlement, tx uow.UnitOfWork, opts Options, log *zap.Logger) *Usecase {
	if opts.PlatformCap <= 0 {
		opts.PlatformCap = DefaultPlatformCap
	}
	if opts.WizardTTL <= 0 {
		opts.WizardTTL = DefaultWizardTTL
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		store:      store,
		settlement: s,
		uow:        tx,
		registry:   NewRegistry(),
		log:        log,
		cap:        opts.PlatformCap,
		ttl:        opts.WizardTTL,
		now:        opts.Now,
		ledger:     make(map[string]Receipt),
	}
}

// IdempotencyKey identifies one commit of one wizard.
func IdempotencyKey(wizardID, listingID string, amount float64) string {
	return fmt.Sprintf("%s:%s:%s", wizardID, listingID, decimal.NewFromFloat(amount).StringFixed(2))
}

func (u *Usecase) limit(l *listing.Listing) float64 {
	return min(l.Remaining(), u.cap)
}

func (u *Usecase) Start(ctx context.Context, in StartInput) (*WizardDTO, error) {
	l, err := u.store.Get(in.ListingID)
	if err != nil {
		return nil, err
	}
	max := u.limit(l)
	if max <= 0 {
		return nil, ErrFullyFunded
	}

	amount := in.Amount
	switch {
	case in.QuickFundPct != 0:
		if in.QuickFundPct < 10 || in.QuickFundPct > 100 || in.QuickFundPct%10 != 0 {
			return nil, fmt.Errorf("%w: quick fund percent %d", ErrAmountOutOfRange, in.QuickFundPct)
		}
		amount = decimal.NewFromFloat(l.Remaining()).
			Mul(decimal.NewFromInt(int64(in.QuickFundPct))).
			Div(hundred).Round(2).InexactFloat64()
	case amount == 0:
		amount = DefaultAmount
	}

	w := NewWizard(l.ListingID, in.LenderID, clamp(amount, max), u.now())
	u.registry.Put(w)
	u.log.Debug("funding wizard started",
		zap.String("wizard_id", w.ID().String()),
		zap.String("listing_id", l.ListingID))
	return u.dto(w, l), nil
}

func (u *Usecase) Get(ctx context.Context, wizardID string) (*WizardDTO, error) {
	w, err := u.registry.Get(wizardID)
	if err != nil {
		return nil, err
	}
	l, err := u.store.Get(w.ListingID())
	if err != nil {
		return nil, err
	}
	return u.dto(w, l), nil
}

func (u *Usecase) SetAmount(ctx context.Context, wizardID string, in AmountInput) (*WizardDTO, error) {
	w, l, err := u.lookup(wizardID)
	if err != nil {
		return nil, err
	}
	if err := w.SetAmount(in.Amount, u.limit(l)); err != nil {
		return nil, err
	}
	if in.AutoReinvest != nil {
		if err := w.SetAutoReinvest(*in.AutoReinvest); err != nil {
			return nil, err
		}
	}
	return u.dto(w, l), nil
}

func (u *Usecase) Continue(ctx context.Context, wizardID string) (*WizardDTO, error) {
	w, l, err := u.lookup(wizardID)
	if err != nil {
		return nil, err
	}
	if err := w.Continue(u.limit(l)); err != nil {
		return nil, err
	}
	return u.dto(w, l), nil
}

func (u *Usecase) Back(ctx context.Context, wizardID string) (*WizardDTO, error) {
	w, l, err := u.lookup(wizardID)
	if err != nil {
		return nil, err
	}
	if err := w.Back(); err != nil {
		return nil, err
	}
	return u.dto(w, l), nil
}

// Cancel discards the draft. The store is never touched.
func (u *Usecase) Cancel(ctx context.Context, wizardID string) (*WizardDTO, error) {
	w, l, err := u.lookup(wizardID)
	if err != nil {
		return nil, err
	}
	if err := w.Cancel(); err != nil {
		return nil, err
	}
	u.registry.Forget(w.ID())
	return u.dto(w, l), nil
}

// Confirm settles the draft and credits the listing once per idempotency key.
// A failed commit returns the wizard to Confirmation with the error recorded.
func (u *Usecase) Confirm(ctx context.Context, wizardID string) (*Receipt, error) {
	w, err := u.registry.Get(wizardID)
	if err != nil {
		return nil, err
	}
	if st := w.State(); st.Step == StepDone && st.Receipt != nil {
		return st.Receipt, nil
	}

	amount, err := w.BeginCommit()
	if err != nil {
		return nil, err
	}
	st := w.State()
	key := IdempotencyKey(st.ID, st.ListingID, amount)
	log := u.log.With(zap.String("wizard_id", st.ID), zap.String("listing_id", st.ListingID))

	l, err := u.store.Get(st.ListingID)
	if err != nil {
		w.FailCommit(err)
		return nil, err
	}

	if r, ok, err := u.replay(ctx, key, l); err != nil {
		w.FailCommit(err)
		return nil, err
	} else if ok {
		log.Info("funding commit replayed", zap.String("key", key))
		w.Finish(*r)
		return r, nil
	}

	txID, err := u.settlement.Submit(ctx, st.ListingID, amount)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSettlementFailed, err)
		log.Warn("settlement failed", zap.Error(err))
		w.FailCommit(err)
		return nil, err
	}

	c := &domain.Contribution{
		ContributionID: uuid.NewString(),
		WizardID:       st.ID,
		ListingID:      st.ListingID,
		LenderID:       st.LenderID,
		AutoReinvest:   st.AutoReinvest,
		TxID:           txID,
		IdempotencyKey: key,
		CreatedAt:      u.now(),
	}
	applied, err := u.store.Fund(st.ListingID, amount, func(applied float64) error {
		if applied == 0 {
			return ErrFullyFunded
		}
		c.Amount = applied
		return u.persist(ctx, c)
	})
	if err != nil {
		log.Warn("funding commit failed", zap.Error(err))
		w.FailCommit(err)
		return nil, err
	}

	r := u.receipt(c, amount, l)
	r.Applied = applied
	u.mu.Lock()
	u.ledger[key] = r
	u.mu.Unlock()

	w.Finish(r)
	log.Info("funding committed",
		zap.Float64("requested", amount),
		zap.Float64("applied", applied),
		zap.String("tx_id", txID))
	return &r, nil
}

// Sweep evicts wizards and ledger receipts older than the wizard TTL.
func (u *Usecase) Sweep() int {
	cutoff := u.now().Add(-u.ttl)
	n := u.registry.Sweep(cutoff)

	u.mu.Lock()
	for key, r := range u.ledger {
		if r.SettledAt.Before(cutoff) {
			delete(u.ledger, key)
		}
	}
	left := len(u.ledger)
	u.mu.Unlock()

	if n > 0 {
		u.log.Debug("funding wizards evicted", zap.Int("count", n), zap.Int("receipts_kept", left))
	}
	return n
}

func (u *Usecase) lookup(wizardID string) (*Wizard, *listing.Listing, error) {
	w, err := u.registry.Get(wizardID)
	if err != nil {
		return nil, nil, err
	}
	l, err := u.store.Get(w.ListingID())
	if err != nil {
		return nil, nil, err
	}
	return w, l, nil
}

func (u *Usecase) persist(ctx context.Context, c *domain.Contribution) error {
	if u.uow == nil {
		return nil
	}
	return u.uow.WithinListingTx(ctx, c.ListingID, func(r uow.Repos, _ *listing.Listing) error {
		if err := r.Listings.AddFunded(ctx, c.ListingID, c.Amount); err != nil {
			return fmt.Errorf("credit listing: %w", err)
		}
		if err := r.Contributions.Create(ctx, c); err != nil {
			return fmt.Errorf("record contribution: %w", err)
		}
		return nil
	})
}

// replay finds an earlier commit with the same key, in memory first and then
// in the contributions table.
func (u *Usecase) replay(ctx context.Context, key string, l *listing.Listing) (*Receipt, bool, error) {
	u.mu.Lock()
	r, ok := u.ledger[key]
	u.mu.Unlock()
	if ok {
		return &r, true, nil
	}
	if u.uow == nil {
		return nil, false, nil
	}

	var found *domain.Contribution
	err := u.uow.WithinTx(ctx, func(repos uow.Repos) error {
		c, err := repos.Contributions.GetByIdempotencyKey(ctx, key)
		if err != nil {
			return err
		}
		found = c
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	r = u.receipt(found, found.Amount, l)
	return &r, true, nil
}

func (u *Usecase) receipt(c *domain.Contribution, requested float64, l *listing.Listing) Receipt {
	return Receipt{
		ContributionID: c.ContributionID,
		WizardID:       c.WizardID,
		ListingID:      c.ListingID,
		TxID:           c.TxID,
		ExplorerURL:    fmt.Sprintf(explorerURLFormat, c.TxID),
		Requested:      requested,
		Applied:        c.Amount,
		AutoReinvest:   c.AutoReinvest,
		Quote:          NewQuote(l, c.Amount),
		SettledAt:      c.CreatedAt,
	}
}

func (u *Usecase) dto(w *Wizard, l *listing.Listing) *WizardDTO {
	st := w.State()
	max := u.limit(l)
	d := &WizardDTO{
		ID:           st.ID,
		ListingID:    st.ListingID,
		LenderID:     st.LenderID,
		Step:         st.Step,
		Amount:       st.Amount,
		MinAmount:    min(MinAmount, max),
		MaxAmount:    max,
		AutoReinvest: st.AutoReinvest,
		Actions:      st.Actions,
		LastError:    st.LastError,
		Receipt:      st.Receipt,
	}
	if st.Amount > 0 {
		q := NewQuote(l, st.Amount)
		d.Quote = &q
	}
	return d
}
