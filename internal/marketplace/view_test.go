package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_LoadingPlaceholders(t *testing.T) {
	v := NewView(NewStore())
	r := v.Query(DefaultCriteria())
	assert.True(t, r.Loading)
	assert.Equal(t, PlaceholderCount, r.Placeholders)
	assert.False(t, r.Empty(), "loading is not the no-results state")
}

func TestView_MemoizesUntilSnapshotOrCriteriaChange(t *testing.T) {
	s := loadedStore(t, mk("1", "KE", 10, 100, 50, t0), mk("2", "UG", 8, 200, 0, t0))
	v := NewView(s)
	c := Criteria{Sort: SortFundingDesc}

	first := v.Query(c)
	second := v.Query(c)
	require.Len(t, first.Items, 2)
	assert.Equal(t, first.Version, second.Version)
	assert.Same(t, &first.Items[0], &second.Items[0], "unchanged inputs reuse the projection")

	_, err := s.ApplyFunding("2", 200)
	require.NoError(t, err)
	third := v.Query(c)
	assert.Greater(t, third.Version, first.Version)
	assert.Equal(t, []string{"2", "1"}, ids(third.Items))

	fourth := v.Query(Criteria{Countries: []string{"KE"}})
	assert.Equal(t, []string{"1"}, ids(fourth.Items))
}

func TestView_EmptyResultOffersClear(t *testing.T) {
	s := loadedStore(t, mk("1", "KE", 10, 100, 50, t0))
	v := NewView(s)
	c := Criteria{Search: "nothing matches"}
	r := v.Query(c)
	assert.True(t, r.Empty())

	r = v.Query(c.Clear())
	assert.Equal(t, []string{"1"}, ids(r.Items))
}
