package marketplace

import (
	"sync"

	"seedflow-backend/internal/domain/listing"
)

// PlaceholderCount is how many skeleton cards a loading view renders.
const PlaceholderCount = 6

// Result is what the presentation layer renders for one criteria selection.
type Result struct {
	Loading      bool
	Placeholders int
	Version      uint64
	Criteria     Criteria
	Items        []*listing.Listing
}

// Empty reports the "no results" state, which offers a clear-filters action.
func (r Result) Empty() bool { return !r.Loading && len(r.Items) == 0 }

// View memoizes FilterAndSort on (snapshot version, criteria key) so repeated
// reads of an unchanged store reuse the previous projection.
type View struct {
	store *Store

	mu      sync.Mutex
	version uint64
	key     string
	items   []*listing.Listing
	valid   bool
}

func NewView(s *Store) *View { return &View{store: s} }

func (v *View) Query(c Criteria) Result {
	snap, err := v.store.Snapshot()
	if err != nil {
		return Result{Loading: true, Placeholders: PlaceholderCount, Criteria: c}
	}

	key := c.Key()
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.valid || v.version != snap.Version || v.key != key {
		v.items = FilterAndSort(snap.Listings, c)
		v.version, v.key, v.valid = snap.Version, key, true
	}
	return Result{Version: snap.Version, Criteria: c, Items: v.items}
}
