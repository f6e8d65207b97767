package uowmock

import (
	"context"
	"errors"

	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn        func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinListingTxFn func(ctx context.Context, listingID string, fn func(r uow.Repos, l *listing.Listing) error) error
}

func New() *UoW { return &UoW{} }

// Passthrough runs every body against repos without a transaction. The
// listing tx looks the row up through repos.Listings.GetByListingIDForUpdate.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinListingTxFn: func(ctx context.Context, id string, fn func(uow.Repos, *listing.Listing) error) error {
			l, err := repos.Listings.GetByListingIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, l)
		},
	}
}

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinListingTx(fn func(context.Context, string, func(uow.Repos, *listing.Listing) error) error) *UoW {
	m.WithinListingTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinListingTx(ctx context.Context, listingID string, fn func(r uow.Repos, l *listing.Listing) error) error {
	if m.WithinListingTxFn != nil {
		return m.WithinListingTxFn(ctx, listingID, fn)
	}
	return errUnimplemented
}
