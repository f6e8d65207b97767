package listingmock

import (
	"context"
	"errors"
	"testing"

	domain "seedflow-backend/internal/domain/listing"
)

func TestRepo_Create(t *testing.T) {
	ctx := context.Background()
	l := &domain.Listing{ListingID: "LS-1"}

	called := false
	wantErr := errors.New("boom")
	m := &Repo{
		CreateFn: func(gotCtx context.Context, got *domain.Listing) error {
			called = true
			if gotCtx != ctx || got != l {
				t.Fatalf("Create args not forwarded")
			}
			return wantErr
		},
	}
	if err := m.Create(ctx, l); !errors.Is(err, wantErr) {
		t.Fatalf("Create: want %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatalf("CreateFn not called")
	}

	m = &Repo{}
	if err := m.Create(ctx, l); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
}

func TestRepo_Reads(t *testing.T) {
	ctx := context.Background()
	want := &domain.Listing{ListingID: "LS-2"}

	m := &Repo{
		GetByListingIDFn: func(_ context.Context, id string) (*domain.Listing, error) {
			if id != "LS-2" {
				t.Fatalf("GetByListingID id mismatch: %s", id)
			}
			return want, nil
		},
		GetByListingIDForUpdateFn: func(_ context.Context, id string) (*domain.Listing, error) {
			return want, nil
		},
		ListFn: func(context.Context) ([]*domain.Listing, error) {
			return []*domain.Listing{want}, nil
		},
	}
	if got, err := m.GetByListingID(ctx, "LS-2"); err != nil || got != want {
		t.Fatalf("GetByListingID: got %v, %v", got, err)
	}
	if got, err := m.GetByListingIDForUpdate(ctx, "LS-2"); err != nil || got != want {
		t.Fatalf("GetByListingIDForUpdate: got %v, %v", got, err)
	}
	if got, err := m.List(ctx); err != nil || len(got) != 1 {
		t.Fatalf("List: got %v, %v", got, err)
	}

	m = &Repo{}
	if _, err := m.GetByListingID(ctx, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByListingID default: want ErrNotFound, got %v", err)
	}
	if _, err := m.GetByListingIDForUpdate(ctx, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByListingIDForUpdate default: want ErrNotFound, got %v", err)
	}
	if got, err := m.List(ctx); err != nil || got == nil {
		t.Fatalf("List default: want empty slice, got %v, %v", got, err)
	}
}

func TestRepo_AddFunded(t *testing.T) {
	var gotID string
	var gotAmt float64
	m := &Repo{AddFundedFn: func(_ context.Context, id string, amt float64) error {
		gotID, gotAmt = id, amt
		return nil
	}}
	if err := m.AddFunded(context.Background(), "LS-3", 25); err != nil {
		t.Fatalf("AddFunded: %v", err)
	}
	if gotID != "LS-3" || gotAmt != 25 {
		t.Fatalf("AddFunded args: %s %v", gotID, gotAmt)
	}
	if err := (&Repo{}).AddFunded(context.Background(), "LS-3", 1); err != nil {
		t.Fatalf("AddFunded default: %v", err)
	}
}
