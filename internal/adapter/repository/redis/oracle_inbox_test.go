package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/domain/oracle"
)

func newInbox(t *testing.T) (*OracleInbox, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewOracleInbox(rdb), mr
}

func TestOracleInbox_AppendFansOut(t *testing.T) {
	s, mr := newInbox(t)
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	e1 := oracle.Event{ID: "e1", Type: listing.TagDrought, ListingID: "l1", Borrower: "Maria's Farm", Amount: 50, OccurredAt: at}
	e2 := oracle.Event{ID: "e2", Type: listing.TagFlood, ListingID: "l2", Amount: 20, OccurredAt: at}
	require.NoError(t, s.Append(ctx, e1, []string{"w1", "w2"}))
	require.NoError(t, s.Append(ctx, e2, []string{"w1"}))

	all, err := s.Events(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, e1, all[0])

	in, unread, err := s.Inbox(ctx, "w1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)
	assert.Equal(t, "e2", in[0].ID)
	assert.Equal(t, "e1", in[1].ID)

	v, err := mr.Get("oracle:unread:w2")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, s.MarkRead(ctx, "w1"))
	_, unread, err = s.Inbox(ctx, "w1")
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestOracleInbox_EmptyLender(t *testing.T) {
	s, _ := newInbox(t)
	in, unread, err := s.Inbox(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, in)
	assert.Zero(t, unread)
}

func TestOracleInbox_TrimsInbox(t *testing.T) {
	s, mr := newInbox(t)
	ctx := context.Background()
	for i := 0; i < inboxLimit+5; i++ {
		require.NoError(t, s.Append(ctx, oracle.Event{ID: fmt.Sprint(i)}, []string{"w1"}))
	}
	in, unread, err := s.Inbox(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, in, inboxLimit)
	assert.EqualValues(t, inboxLimit+5, unread)

	items, err := mr.List("oracle:events")
	require.NoError(t, err)
	assert.Len(t, items, inboxLimit+5)
}

func TestOracleInbox_CorruptEntry(t *testing.T) {
	s, mr := newInbox(t)
	_, err := mr.RPush("oracle:events", "not json")
	require.NoError(t, err)
	_, err = s.Events(context.Background())
	assert.Error(t, err)
}
