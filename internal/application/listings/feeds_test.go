package listings

import (
	"context"
	"testing"
	"time"

	"pettie-backend/internal/domain"
	"pettie-backend/internal/realtime"
	"pettie-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextSnapshot[T any](t *testing.T, sub *realtime.Subscription[T]) realtime.Snapshot[T] {
	t.Helper()
	select {
	case snap, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
	}
	return realtime.Snapshot[T]{}
}

func TestFeeds_OverRedis(t *testing.T) {
	rdb, _ := testutil.Redis(t)
	bus := &realtime.RedisBus{Rdb: rdb}
	svc := &Service{DB: testutil.DB(t), Publisher: bus}
	feeds := NewFeeds(svc, bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seller := &Seller{ID: uuid.New(), DisplayName: "Ada"}
	recent := feeds.SubscribeRecent(ctx, 0)
	byUser := feeds.SubscribeByUser(ctx, seller.ID)

	assert.Empty(t, nextSnapshot(t, recent).Value)
	assert.Empty(t, nextSnapshot(t, byUser).Value)

	l, err := svc.CreateListing(ctx, seller, validInput(), nil)
	require.NoError(t, err)

	snap := nextSnapshot(t, recent)
	require.NoError(t, snap.Err)
	require.Len(t, snap.Value, 1)
	assert.Equal(t, l.ID, snap.Value[0].ID)

	snap = nextSnapshot(t, byUser)
	require.Len(t, snap.Value, 1)

	single := feeds.SubscribeListing(ctx, l.ID)
	one := nextSnapshot(t, single)
	require.NotNil(t, one.Value)
	assert.Equal(t, domain.StatusAvailable, one.Value.Status)

	_, err = svc.UpdateStatus(ctx, seller.ID, l.ID, "RESERVED")
	require.NoError(t, err)
	one = nextSnapshot(t, single)
	require.NotNil(t, one.Value)
	assert.Equal(t, domain.StatusReserved, one.Value.Status)

	assert.Equal(t, map[string]int{"recent": 1, "user": 1, "listing": 1}, feeds.Listeners())
	recent.Close()
	byUser.Close()
	single.Close()
	assert.Equal(t, map[string]int{"recent": 0, "user": 0, "listing": 0}, feeds.Listeners())
}

func TestFeeds_MissingListingIsNil(t *testing.T) {
	rdb, _ := testutil.Redis(t)
	bus := &realtime.RedisBus{Rdb: rdb}
	feeds := NewFeeds(&Service{DB: testutil.DB(t)}, bus)

	sub := feeds.SubscribeListing(context.Background(), uuid.New())
	defer sub.Close()
	snap := nextSnapshot(t, sub)
	assert.NoError(t, snap.Err)
	assert.Nil(t, snap.Value)
}
