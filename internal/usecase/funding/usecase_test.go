package funding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "seedflow-backend/internal/domain/funding"
	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/domain/uow"
	"seedflow-backend/internal/marketplace"
	"seedflow-backend/internal/testutil/contributionmock"
	"seedflow-backend/internal/testutil/listingmock"
	"seedflow-backend/internal/testutil/uowmock"
)

var t0 = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeSettlement struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (f *fakeSettlement) Submit(ctx context.Context, listingID string, amount float64) (string, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return "", f.err
	}
	return "5xTxHash", nil
}

func newStore(t *testing.T, ls ...*listing.Listing) *marketplace.Store {
	t.Helper()
	s := marketplace.NewStore(marketplace.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))
	require.NoError(t, s.Load(context.Background(), marketplace.SourceFunc(func(context.Context) ([]*listing.Listing, error) {
		return ls, nil
	})))
	return s
}

func mkListing(id string, amount, funded float64) *listing.Listing {
	return &listing.Listing{
		ListingID:  id,
		Name:       "Maria's Farm",
		Country:    "KE",
		Sector:     listing.SectorCrop,
		Amount:     amount,
		Funded:     funded,
		APR:        10,
		TermMonths: 6,
		Insurance:  listing.Tags{listing.TagDrought},
		CreatedAt:  t0,
	}
}

func newUsecase(t *testing.T, s *marketplace.Store, settle Settlement, tx uow.UnitOfWork) *Usecase {
	t.Helper()
	return NewUsecase(s, settle, tx, Options{Now: func() time.Time { return t0 }}, nil)
}

func funded(t *testing.T, s *marketplace.Store, id string) float64 {
	t.Helper()
	l, err := s.Get(id)
	require.NoError(t, err)
	return l.Funded
}

func TestStart_DefaultsAndClamps(t *testing.T) {
	s := newStore(t, mkListing("l1", 100, 70), mkListing("big", 5000, 0))
	uc := newUsecase(t, s, &fakeSettlement{}, nil)
	ctx := context.Background()

	dto, err := uc.Start(ctx, StartInput{ListingID: "big"})
	require.NoError(t, err)
	assert.Equal(t, 50.0, dto.Amount)
	assert.Equal(t, 500.0, dto.MaxAmount, "platform cap")
	assert.Equal(t, StepAmountSelection, dto.Step)
	require.NotNil(t, dto.Quote)

	dto, err = uc.Start(ctx, StartInput{ListingID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, 30.0, dto.Amount, "default is clamped to remaining")
	assert.Equal(t, 30.0, dto.MaxAmount)
}

func TestStart_QuickFund(t *testing.T) {
	s := newStore(t, mkListing("l1", 300, 100))
	uc := newUsecase(t, s, &fakeSettlement{}, nil)

	dto, err := uc.Start(context.Background(), StartInput{ListingID: "l1", QuickFundPct: 30})
	require.NoError(t, err)
	assert.Equal(t, 60.0, dto.Amount)

	for _, pct := range []int{5, 15, 110, -10} {
		_, err := uc.Start(context.Background(), StartInput{ListingID: "l1", QuickFundPct: pct})
		assert.ErrorIs(t, err, ErrAmountOutOfRange, "pct %d", pct)
	}
}

func TestStart_Errors(t *testing.T) {
	s := newStore(t, mkListing("full", 100, 100))
	uc := newUsecase(t, s, &fakeSettlement{}, nil)

	_, err := uc.Start(context.Background(), StartInput{ListingID: "missing"})
	assert.ErrorIs(t, err, listing.ErrNotFound)
	_, err = uc.Start(context.Background(), StartInput{ListingID: "full"})
	assert.ErrorIs(t, err, ErrFullyFunded)

	loading := marketplace.NewStore()
	_, err = newUsecase(t, loading, &fakeSettlement{}, nil).Start(context.Background(), StartInput{ListingID: "x"})
	assert.ErrorIs(t, err, marketplace.ErrLoading)
}

func TestConfirm_AppliesFundingExactlyOnce(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 50))
	settle := &fakeSettlement{}
	uc := newUsecase(t, s, settle, nil)
	ctx := context.Background()

	dto, err := uc.Start(ctx, StartInput{ListingID: "1", Amount: 10, LenderID: "w1"})
	require.NoError(t, err)
	_, err = uc.Continue(ctx, dto.ID)
	require.NoError(t, err)

	r, err := uc.Confirm(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, funded(t, s, "1"))
	assert.Equal(t, 10.0, r.Applied)
	assert.Equal(t, "5xTxHash", r.TxID)
	assert.Equal(t, "https://solscan.io/tx/5xTxHash?cluster=devnet", r.ExplorerURL)
	assert.Equal(t, 11.0, r.Quote.ExpectedReturn)

	// a retried confirm returns the same receipt without touching the store
	again, err := uc.Confirm(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, r.TxID, again.TxID)
	assert.Equal(t, 60.0, funded(t, s, "1"))
	assert.EqualValues(t, 1, settle.calls.Load())

	got, err := uc.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, StepDone, got.Step)
	assert.Empty(t, got.Actions)
}

func TestConfirm_ClampsAgainstCurrentValue(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 50))
	uc := newUsecase(t, s, &fakeSettlement{}, nil)
	ctx := context.Background()

	dto, err := uc.Start(ctx, StartInput{ListingID: "1", Amount: 40})
	require.NoError(t, err)
	_, err = uc.Continue(ctx, dto.ID)
	require.NoError(t, err)

	// another lender funds 45 while the draft sits at Confirmation
	_, err = s.ApplyFunding("1", 45)
	require.NoError(t, err)

	r, err := uc.Confirm(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, r.Requested)
	assert.Equal(t, 5.0, r.Applied)
	assert.Equal(t, 100.0, funded(t, s, "1"))
}

func TestConfirm_SettlementFailureLeavesStoreUnchanged(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 50))
	settle := &fakeSettlement{err: errors.New("rpc unavailable")}
	uc := newUsecase(t, s, settle, nil)
	ctx := context.Background()

	dto, _ := uc.Start(ctx, StartInput{ListingID: "1", Amount: 20})
	_, err := uc.Continue(ctx, dto.ID)
	require.NoError(t, err)

	_, err = uc.Confirm(ctx, dto.ID)
	assert.ErrorIs(t, err, ErrSettlementFailed)
	assert.Equal(t, 50.0, funded(t, s, "1"))

	got, _ := uc.Get(ctx, dto.ID)
	assert.Equal(t, StepConfirmation, got.Step)
	assert.Contains(t, got.LastError, "rpc unavailable")

	settle.err = nil
	r, err := uc.Confirm(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, r.Applied)
	assert.Equal(t, 70.0, funded(t, s, "1"))
}

func TestConfirm_ConcurrentCallsCommitOnce(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 0))
	settle := &fakeSettlement{block: make(chan struct{})}
	uc := newUsecase(t, s, settle, nil)
	ctx := context.Background()

	dto, _ := uc.Start(ctx, StartInput{ListingID: "1", Amount: 30})
	_, err := uc.Continue(ctx, dto.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := uc.Confirm(ctx, dto.ID)
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return settle.calls.Load() == 1 }, time.Second, time.Millisecond)

	_, err = uc.Confirm(ctx, dto.ID)
	assert.ErrorIs(t, err, ErrCommitInFlight)
	_, err = uc.Cancel(ctx, dto.ID)
	assert.ErrorIs(t, err, ErrCommitInFlight)

	close(settle.block)
	wg.Wait()
	assert.Equal(t, 30.0, funded(t, s, "1"))
}

func TestCancel_NeverMutatesStore(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 50))
	uc := newUsecase(t, s, &fakeSettlement{}, nil)
	ctx := context.Background()
	before, _ := s.Snapshot()

	dto, _ := uc.Start(ctx, StartInput{ListingID: "1"})
	_, err := uc.Continue(ctx, dto.ID)
	require.NoError(t, err)
	got, err := uc.Cancel(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, StepCancelled, got.Step)

	after, _ := s.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	_, err = uc.Get(ctx, dto.ID)
	assert.ErrorIs(t, err, ErrWizardNotFound)
}

func TestSetAmount_ClampsToRemainingAndCap(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 50))
	uc := newUsecase(t, s, &fakeSettlement{}, nil)
	ctx := context.Background()

	dto, _ := uc.Start(ctx, StartInput{ListingID: "1"})
	on := true
	got, err := uc.SetAmount(ctx, dto.ID, AmountInput{Amount: 1000, AutoReinvest: &on})
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Amount)
	assert.True(t, got.AutoReinvest)

	_, err = uc.SetAmount(ctx, "not-a-uuid", AmountInput{Amount: 10})
	assert.ErrorIs(t, err, ErrWizardNotFound)
}

func TestConfirm_PersistsThroughUnitOfWork(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 50))
	var credited float64
	var created *domain.Contribution
	listings := &listingmock.Repo{
		GetByListingIDForUpdateFn: func(_ context.Context, id string) (*listing.Listing, error) {
			return mkListing(id, 100, 50), nil
		},
		AddFundedFn: func(_ context.Context, id string, amt float64) error {
			credited = amt
			return nil
		},
	}
	contribs := &contributionmock.Repo{
		CreateFn: func(_ context.Context, c *domain.Contribution) error {
			created = c
			return nil
		},
	}
	uc := newUsecase(t, s, &fakeSettlement{}, uowmock.Passthrough(uow.Repos{Listings: listings, Contributions: contribs}))
	ctx := context.Background()

	dto, _ := uc.Start(ctx, StartInput{ListingID: "1", Amount: 20, LenderID: "wallet-1"})
	_, err := uc.Continue(ctx, dto.ID)
	require.NoError(t, err)
	r, err := uc.Confirm(ctx, dto.ID)
	require.NoError(t, err)

	assert.Equal(t, 20.0, credited)
	require.NotNil(t, created)
	assert.Equal(t, r.ContributionID, created.ContributionID)
	assert.Equal(t, "wallet-1", created.LenderID)
	assert.Equal(t, IdempotencyKey(dto.ID, "1", 20), created.IdempotencyKey)
}

func TestConfirm_PersistFailureDiscardsMutation(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 50))
	boom := errors.New("deadlock")
	contribs := &contributionmock.Repo{CreateFn: func(context.Context, *domain.Contribution) error { return boom }}
	listings := &listingmock.Repo{
		GetByListingIDForUpdateFn: func(_ context.Context, id string) (*listing.Listing, error) { return mkListing(id, 100, 50), nil },
	}
	uc := newUsecase(t, s, &fakeSettlement{}, uowmock.Passthrough(uow.Repos{Listings: listings, Contributions: contribs}))
	ctx := context.Background()

	dto, _ := uc.Start(ctx, StartInput{ListingID: "1", Amount: 20})
	_, _ = uc.Continue(ctx, dto.ID)
	_, err := uc.Confirm(ctx, dto.ID)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 50.0, funded(t, s, "1"))

	got, _ := uc.Get(ctx, dto.ID)
	assert.Equal(t, StepConfirmation, got.Step)
}

func TestConfirm_ReplaysPersistedContribution(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 50))
	settle := &fakeSettlement{}
	contribs := &contributionmock.Repo{
		GetByIdempotencyKeyFn: func(_ context.Context, key string) (*domain.Contribution, error) {
			return &domain.Contribution{ContributionID: "c-1", ListingID: "1", Amount: 20, TxID: "oldTx", IdempotencyKey: key}, nil
		},
	}
	uc := newUsecase(t, s, settle, uowmock.Passthrough(uow.Repos{Listings: &listingmock.Repo{}, Contributions: contribs}))
	ctx := context.Background()

	dto, _ := uc.Start(ctx, StartInput{ListingID: "1", Amount: 20})
	_, _ = uc.Continue(ctx, dto.ID)
	r, err := uc.Confirm(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "oldTx", r.TxID)
	assert.Zero(t, settle.calls.Load())
	assert.Equal(t, 50.0, funded(t, s, "1"))
}

func TestIdempotencyKey(t *testing.T) {
	assert.Equal(t, "w:l:10.00", IdempotencyKey("w", "l", 10))
	assert.Equal(t, "w:l:10.50", IdempotencyKey("w", "l", 10.5))
}

func TestWizard_ClampedRequestFillsListing(t *testing.T) {
	s := newStore(t, mkListing("1", 100, 50))
	uc := newUsecase(t, s, &fakeSettlement{}, nil)
	ctx := context.Background()

	dto, err := uc.Start(ctx, StartInput{ListingID: "1"})
	require.NoError(t, err)
	got, err := uc.SetAmount(ctx, dto.ID, AmountInput{Amount: 60})
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Amount)

	got, err = uc.Continue(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, got.Step)

	r, err := uc.Confirm(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, r.Requested)
	assert.Equal(t, 50.0, r.Applied)
	assert.Equal(t, 100.0, funded(t, s, "1"))

	l, err := s.Get("1")
	require.NoError(t, err)
	assert.True(t, l.FullyFunded())
}

func TestSweep_EvictsFinishedAndAbandonedWizards(t *testing.T) {
	s := newStore(t, mkListing("1", 1_000_000, 0))
	now := t0
	uc := NewUsecase(s, &fakeSettlement{}, nil, Options{
		PlatformCap: 1_000_000,
		WizardTTL:   time.Hour,
		Now:         func() time.Time { return now },
	}, nil)
	ctx := context.Background()

	var confirmed []string
	for i := 0; i < 500; i++ {
		dto, err := uc.Start(ctx, StartInput{ListingID: "1", Amount: 1})
		require.NoError(t, err)
		_, err = uc.Continue(ctx, dto.ID)
		require.NoError(t, err)
		_, err = uc.Confirm(ctx, dto.ID)
		require.NoError(t, err)
		confirmed = append(confirmed, dto.ID)
	}
	for i := 0; i < 500; i++ {
		_, err := uc.Start(ctx, StartInput{ListingID: "1", Amount: 1})
		require.NoError(t, err)
	}
	require.Equal(t, 1000, uc.registry.Len())

	// nothing is old enough yet
	now = t0.Add(59 * time.Minute)
	assert.Zero(t, uc.Sweep())
	assert.Equal(t, 1000, uc.registry.Len())

	now = t0.Add(61 * time.Minute)
	fresh, err := uc.Start(ctx, StartInput{ListingID: "1", Amount: 1})
	require.NoError(t, err)

	assert.Equal(t, 1000, uc.Sweep())
	assert.Equal(t, 1, uc.registry.Len())
	uc.mu.Lock()
	assert.Empty(t, uc.ledger)
	uc.mu.Unlock()

	_, err = uc.Get(ctx, confirmed[0])
	assert.ErrorIs(t, err, ErrWizardNotFound)
	_, err = uc.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestRegistrySweep_KeepsCommittingWizard(t *testing.T) {
	r := NewRegistry()
	committing := NewWizard("1", "", 10, t0)
	require.NoError(t, committing.Continue(100))
	_, err := committing.BeginCommit()
	require.NoError(t, err)
	r.Put(committing)
	r.Put(NewWizard("1", "", 10, t0))

	assert.Equal(t, 1, r.Sweep(t0.Add(time.Hour)))
	_, err = r.Get(committing.ID().String())
	assert.NoError(t, err)
}
