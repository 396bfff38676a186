package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCenter(t *testing.T) (*Center, *repositories.MemoryNotificationRepository, *repositories.MemoryAccountRepository) {
	t.Helper()
	repo := repositories.NewMemoryNotificationRepository()
	accounts := repositories.NewMemoryAccountRepository()
	return NewCenter(repo, accounts, zap.NewNop()), repo, accounts
}

func seedAccount(t *testing.T, accounts *repositories.MemoryAccountRepository, name string) *models.Account {
	t.Helper()
	acc := &models.Account{ID: uuid.NewString(), Name: name, Level: 1}
	require.NoError(t, accounts.Create(context.Background(), acc))
	return acc
}

// waitSnapshot blocks until a snapshot satisfying ok arrives. Snapshots are
// coalescing, so intermediate states may be skipped.
func waitSnapshot(t *testing.T, ch <-chan Snapshot, ok func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, open := <-ch:
			if !open {
				t.Fatal("snapshot channel closed before the expected snapshot arrived")
			}
			if ok(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestPublishStoresNotificationWithActorName(t *testing.T) {
	center, repo, accounts := newTestCenter(t)
	ctx := context.Background()
	actor := seedAccount(t, accounts, "alice")
	recipient := seedAccount(t, accounts, "bob")

	center.Publish(ctx, Event{
		Type:        models.NotificationLike,
		ActorID:     actor.ID,
		RecipientID: recipient.ID,
		EntryID:     "entry-1",
		Snippet:     "a good day",
	})

	list, total, err := repo.ListByRecipient(recipient.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationLike, list[0].Type)
	assert.Equal(t, "alice", list[0].ActorName)
	assert.Equal(t, "a good day", list[0].Snippet)
	assert.False(t, list[0].IsRead)
}

func TestPublishSkipsSelfDirected(t *testing.T) {
	center, repo, accounts := newTestCenter(t)
	ctx := context.Background()
	actor := seedAccount(t, accounts, "alice")

	center.Publish(ctx, Event{
		Type:        models.NotificationLike,
		ActorID:     actor.ID,
		RecipientID: actor.ID,
	})

	assert.Zero(t, repo.WriteCount())
	unread, err := center.UnreadCount(actor.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestPublishTruncatesSnippet(t *testing.T) {
	center, repo, accounts := newTestCenter(t)
	ctx := context.Background()
	actor := seedAccount(t, accounts, "alice")
	recipient := seedAccount(t, accounts, "bob")

	center.Publish(ctx, Event{
		Type:        models.NotificationComment,
		ActorID:     actor.ID,
		RecipientID: recipient.ID,
		Snippet:     strings.Repeat("x", 200),
	})

	list, _, err := repo.ListByRecipient(recipient.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, strings.Repeat("x", 80)+"…", list[0].Snippet)
}

func TestMarkAllReadSkipsWriteWhenNothingUnread(t *testing.T) {
	center, repo, accounts := newTestCenter(t)
	ctx := context.Background()
	actor := seedAccount(t, accounts, "alice")
	recipient := seedAccount(t, accounts, "bob")

	center.Publish(ctx, Event{Type: models.NotificationFollow, ActorID: actor.ID, RecipientID: recipient.ID})
	center.Publish(ctx, Event{Type: models.NotificationLike, ActorID: actor.ID, RecipientID: recipient.ID})

	base := repo.WriteCount()
	require.NoError(t, center.MarkAllRead(recipient.ID))
	assert.Equal(t, base+1, repo.WriteCount())

	unread, err := center.UnreadCount(recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// nothing unread, so no write may reach the store
	require.NoError(t, center.MarkAllRead(recipient.ID))
	assert.Equal(t, base+1, repo.WriteCount())
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	center, _, accounts := newTestCenter(t)
	ctx := context.Background()
	actor := seedAccount(t, accounts, "alice")
	recipient := seedAccount(t, accounts, "bob")

	ch, cancel, err := center.Subscribe(ctx, recipient.ID)
	require.NoError(t, err)
	defer cancel()

	initial := waitSnapshot(t, ch, func(Snapshot) bool { return true })
	assert.Empty(t, initial.Notifications)
	assert.Zero(t, initial.Unread)

	center.Publish(ctx, Event{Type: models.NotificationFollow, ActorID: actor.ID, RecipientID: recipient.ID})
	snap := waitSnapshot(t, ch, func(s Snapshot) bool { return s.Unread == 1 })
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, models.NotificationFollow, snap.Notifications[0].Type)

	require.NoError(t, center.MarkAllRead(recipient.ID))
	snap = waitSnapshot(t, ch, func(s Snapshot) bool { return s.Unread == 0 })
	require.Len(t, snap.Notifications, 1)
	assert.True(t, snap.Notifications[0].IsRead)
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	center, _, accounts := newTestCenter(t)
	recipient := seedAccount(t, accounts, "bob")

	ch, cancel, err := center.Subscribe(context.Background(), recipient.ID)
	require.NoError(t, err)

	waitSnapshot(t, ch, func(Snapshot) bool { return true })
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("snapshot channel not closed after cancel")
		}
	}
}
