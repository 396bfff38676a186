package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/moodlink-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountReplaceRejectsStaleVersion(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Account{ID: "a1", Name: "alice"}))

	first, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)

	first.Points = 10
	require.NoError(t, repo.Replace(ctx, first))

	second.Points = 99
	assert.ErrorIs(t, repo.Replace(ctx, second), ErrConflict)

	got, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Points, "the stale write must not land")
}

func TestAccountReplaceUnknown(t *testing.T) {
	repo := NewMemoryAccountRepository()
	err := repo.Replace(context.Background(), &models.Account{ID: "missing", Version: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplacePairIsAllOrNothing(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Account{ID: "a1", Name: "alice"}))
	require.NoError(t, repo.Create(ctx, &models.Account{ID: "b1", Name: "bob"}))

	alice, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	bob, err := repo.GetByID(ctx, "b1")
	require.NoError(t, err)

	// concurrent update makes bob's copy stale
	bobFresh, err := repo.GetByID(ctx, "b1")
	require.NoError(t, err)
	bobFresh.Points = 5
	require.NoError(t, repo.Replace(ctx, bobFresh))

	alice.Following = models.AddToSet(alice.Following, "b1")
	bob.Followers = models.AddToSet(bob.Followers, "a1")
	assert.ErrorIs(t, repo.ReplacePair(ctx, alice, bob), ErrConflict)

	gotAlice, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, gotAlice.Following, "neither side of a failed pair write may land")
}

func TestReplaceIsolatesCallerCopies(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Account{ID: "a1", Name: "alice"}))

	got, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	got.Following = append(got.Following, "b1")

	again, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, again.Following, "mutating a returned copy must not leak into the store")
}

func TestEntryReplaceRejectsStaleVersion(t *testing.T) {
	repo := NewMemoryEntryRepository()
	ctx := context.Background()
	entry := &models.Entry{OwnerID: "a1", Kind: models.KindJournal, Content: "hello"}
	require.NoError(t, repo.Create(ctx, entry))
	id := entry.ID.Hex()

	first, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	first.Likes = 1
	first.LikedBy = []string{"b1"}
	require.NoError(t, repo.Replace(ctx, first))
	assert.ErrorIs(t, repo.Replace(ctx, second), ErrConflict)
}

func TestEntryListNewestFirst(t *testing.T) {
	repo := NewMemoryEntryRepository()
	ctx := context.Background()
	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, &models.Entry{OwnerID: "a1", Kind: models.KindJournal, Content: content}))
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "three", entries[0].Content)
	assert.Equal(t, "one", entries[2].Content)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "two", page[0].Content)
}

func TestEntryDelete(t *testing.T) {
	repo := NewMemoryEntryRepository()
	ctx := context.Background()
	entry := &models.Entry{OwnerID: "a1", Kind: models.KindJournal, Content: "gone"}
	require.NoError(t, repo.Create(ctx, entry))
	id := entry.ID.Hex()

	require.NoError(t, repo.Delete(ctx, id))
	_, err := repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, id), ErrNotFound)
}
