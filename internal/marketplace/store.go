// Package marketplace holds the listing store, the filter/sort engine over its
// snapshots, and the live-update ticker that simulates other lenders.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"seedflow-backend/internal/domain/listing"
)

var ErrLoading = errors.New("listings are still loading")

// Source supplies the initial set of listings.
type Source interface {
	Listings(ctx context.Context) ([]*listing.Listing, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]*listing.Listing, error)

func (f SourceFunc) Listings(ctx context.Context) ([]*listing.Listing, error) { return f(ctx) }

// Rand is the randomness the live tick draws from.
type Rand interface {
	Float64() float64
}

// Snapshot is an immutable view of the store. Callers must not mutate the
// listings; every store mutation publishes a fresh Snapshot instead.
type Snapshot struct {
	Version  uint64
	Listings []*listing.Listing
}

// PersistFunc is called under the store lock with the amount actually applied.
// Returning an error discards the mutation.
type PersistFunc func(applied float64) error

type Store struct {
	mu      sync.RWMutex
	loading bool
	snap    Snapshot

	latency time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

type StoreOption func(*Store)

// WithLoadLatency sets the simulated delay before Load publishes listings.
func WithLoadLatency(d time.Duration) StoreOption { return func(s *Store) { s.latency = d } }

// WithSleep replaces the delay primitive; tests pass a no-op.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) StoreOption {
	return func(s *Store) { s.sleep = fn }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{loading: true, sleep: sleepCtx, snap: Snapshot{Listings: []*listing.Listing{}}}
	for _, o := range opts {
		o(s)
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load fetches listings from src after the configured latency and publishes them.
// Until it returns, Loading reports true.
func (s *Store) Load(ctx context.Context, src Source) error {
	if err := s.sleep(ctx, s.latency); err != nil {
		return err
	}
	ls, err := src.Listings(ctx)
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}
	next := make([]*listing.Listing, 0, len(ls))
	for _, l := range ls {
		next = append(next, l.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{Version: s.snap.Version + 1, Listings: next}
	s.loading = false
	return nil
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loading {
		return Snapshot{}, ErrLoading
	}
	return s.snap, nil
}

// Get returns a copy of one listing.
func (s *Store) Get(listingID string) (*listing.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loading {
		return nil, ErrLoading
	}
	if i := indexOf(s.snap.Listings, listingID); i >= 0 {
		return s.snap.Listings[i].Clone(), nil
	}
	return nil, listing.ErrNotFound
}

// Add publishes a new listing, e.g. one created through borrower intake.
func (s *Store) Add(l *listing.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return ErrLoading
	}
	if indexOf(s.snap.Listings, l.ListingID) >= 0 {
		return fmt.Errorf("%w: duplicate id %s", listing.ErrInvalidListing, l.ListingID)
	}
	next := make([]*listing.Listing, len(s.snap.Listings), len(s.snap.Listings)+1)
	copy(next, s.snap.Listings)
	next = append(next, l.Clone())
	s.publish(next)
	return nil
}

// ApplyLiveTick gives each listing, with probability p, a uniform increment in
// [0, maxIncrement), capped at its amount. It returns the ids that changed.
func (s *Store) ApplyLiveTick(rng Rand, p, maxIncrement float64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return nil
	}

	var (
		next    []*listing.Listing
		changed []string
	)
	for i, l := range s.snap.Listings {
		if rng.Float64() >= p {
			continue
		}
		inc := rng.Float64() * maxIncrement
		funded := clampFunded(l, inc)
		if funded == l.Funded {
			continue
		}
		if next == nil {
			next = make([]*listing.Listing, len(s.snap.Listings))
			copy(next, s.snap.Listings)
		}
		c := l.Clone()
		c.Funded = funded
		next[i] = c
		changed = append(changed, l.ListingID)
	}
	if next != nil {
		s.publish(next)
	}
	return changed
}

// ApplyFunding adds amount to the listing, clamped against its current value.
// It returns the amount actually applied. The store is left unchanged for an
// unknown id.
func (s *Store) ApplyFunding(listingID string, amount float64) (float64, error) {
	return s.Fund(listingID, amount, nil)
}

// Fund is ApplyFunding with a persistence hook run while the write lock is held,
// so the stored and persisted amounts agree.
func (s *Store) Fund(listingID string, amount float64, persist PersistFunc) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("funding amount must be positive, got %.2f", amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return 0, ErrLoading
	}
	i := indexOf(s.snap.Listings, listingID)
	if i < 0 {
		return 0, listing.ErrNotFound
	}

	cur := s.snap.Listings[i]
	funded := clampFunded(cur, amount)
	applied := funded - cur.Funded
	if persist != nil {
		if err := persist(applied); err != nil {
			return 0, err
		}
	}
	if applied == 0 {
		return 0, nil
	}

	next := make([]*listing.Listing, len(s.snap.Listings))
	copy(next, s.snap.Listings)
	c := cur.Clone()
	c.Funded = funded
	next[i] = c
	s.publish(next)
	return applied, nil
}

// caller holds s.mu
func (s *Store) publish(next []*listing.Listing) {
	s.snap = Snapshot{Version: s.snap.Version + 1, Listings: next}
}

func clampFunded(l *listing.Listing, inc float64) float64 {
	if inc <= 0 {
		return l.Funded
	}
	funded := l.Funded + inc
	if funded > l.Amount {
		funded = l.Amount
	}
	if funded < l.Funded {
		return l.Funded
	}
	return funded
}

func indexOf(ls []*listing.Listing, id string) int {
	for i, l := range ls {
		if l.ListingID == id {
			return i
		}
	}
	return -1
}
