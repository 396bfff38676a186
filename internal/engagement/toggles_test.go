package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/moodlink-app/backend/internal/ledger"
	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/notify"
	"github.com/moodlink-app/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *eventRecorder) Publish(_ context.Context, ev notify.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

type fixture struct {
	toggles  *Toggles
	accounts *repositories.MemoryAccountRepository
	entries  *repositories.MemoryEntryRepository
	rec      *eventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := repositories.NewMemoryAccountRepository()
	entries := repositories.NewMemoryEntryRepository()
	engine := ledger.NewEngine(accounts, zap.NewNop())
	rec := &eventRecorder{}
	return &fixture{
		toggles:  NewToggles(entries, engine, rec, zap.NewNop()),
		accounts: accounts,
		entries:  entries,
		rec:      rec,
	}
}

func (f *fixture) account(t *testing.T, name string) *models.Account {
	t.Helper()
	acc := &models.Account{ID: uuid.NewString(), Name: name, Level: 1}
	require.NoError(t, f.accounts.Create(context.Background(), acc))
	return acc
}

func (f *fixture) journal(t *testing.T, ownerID, content string) string {
	t.Helper()
	entry := &models.Entry{OwnerID: ownerID, Kind: models.KindJournal, Content: content}
	require.NoError(t, f.entries.Create(context.Background(), entry))
	return entry.ID.Hex()
}

func (f *fixture) poll(t *testing.T, ownerID string, options ...string) string {
	t.Helper()
	entry := &models.Entry{OwnerID: ownerID, Kind: models.KindVoting, Content: "pick one"}
	for _, text := range options {
		entry.Options = append(entry.Options, models.PollOption{ID: uuid.NewString(), Text: text})
	}
	require.NoError(t, f.entries.Create(context.Background(), entry))
	return entry.ID.Hex()
}

func TestToggleLikeKeepsCounterEqualToSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, "owner")
	entryID := f.journal(t, owner.ID, "hello")
	readers := []*models.Account{f.account(t, "a"), f.account(t, "b"), f.account(t, "c")}

	for _, r := range readers {
		liked, err := f.toggles.ToggleLike(ctx, r.ID, entryID)
		require.NoError(t, err)
		assert.True(t, liked)

		entry, err := f.entries.GetByID(ctx, entryID)
		require.NoError(t, err)
		assert.Equal(t, len(entry.LikedBy), entry.Likes)
	}

	liked, err := f.toggles.ToggleLike(ctx, readers[1].ID, entryID)
	require.NoError(t, err)
	assert.False(t, liked)

	entry, err := f.entries.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Likes)
	assert.Equal(t, len(entry.LikedBy), entry.Likes)
	assert.False(t, entry.HasLiked(readers[1].ID))
}

func TestConcurrentLikeTogglesLoseNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, "owner")
	entryID := f.journal(t, owner.ID, "hello")

	const likers = 10
	var wg sync.WaitGroup
	for i := 0; i < likers; i++ {
		acc := f.account(t, "liker")
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for {
				_, err := f.toggles.ToggleLike(ctx, id, entryID)
				if errors.Is(err, ledger.ErrConflictExhausted) {
					continue
				}
				assert.NoError(t, err)
				return
			}
		}(acc.ID)
	}
	wg.Wait()

	entry, err := f.entries.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, likers, entry.Likes)
	assert.Len(t, entry.LikedBy, likers)
}

func TestLikePaysOwnerAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, "owner")
	reader := f.account(t, "reader")
	entryID := f.journal(t, owner.ID, "a good day")

	_, err := f.toggles.ToggleLike(ctx, reader.ID, entryID)
	require.NoError(t, err)

	gotOwner, err := f.accounts.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeReward, gotOwner.Points)

	events := f.rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationLike, events[0].Type)
	assert.Equal(t, reader.ID, events[0].ActorID)
	assert.Equal(t, owner.ID, events[0].RecipientID)
	assert.Equal(t, "a good day", events[0].Snippet)

	// unliking neither deducts nor notifies
	_, err = f.toggles.ToggleLike(ctx, reader.ID, entryID)
	require.NoError(t, err)
	gotOwner, err = f.accounts.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeReward, gotOwner.Points)
	assert.Len(t, f.rec.all(), 1)
}

func TestSelfLikeCountsButPaysNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, "owner")
	entryID := f.journal(t, owner.ID, "hello")

	liked, err := f.toggles.ToggleLike(ctx, owner.ID, entryID)
	require.NoError(t, err)
	assert.True(t, liked)

	entry, err := f.entries.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Likes)

	gotOwner, err := f.accounts.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, gotOwner.Points)
	assert.Empty(t, f.rec.all())
}

func TestToggleBookmark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, "owner")
	reader := f.account(t, "reader")
	entryID := f.journal(t, owner.ID, "hello")

	bookmarked, err := f.toggles.ToggleBookmark(ctx, reader.ID, entryID)
	require.NoError(t, err)
	assert.True(t, bookmarked)

	entry, err := f.entries.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.True(t, entry.HasBookmarked(reader.ID))

	bookmarked, err = f.toggles.ToggleBookmark(ctx, reader.ID, entryID)
	require.NoError(t, err)
	assert.False(t, bookmarked)

	entry, err = f.entries.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.False(t, entry.HasBookmarked(reader.ID))

	// bookmarks pay nothing and notify nobody
	gotOwner, err := f.accounts.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, gotOwner.Points)
	assert.Empty(t, f.rec.all())
}

func TestCastVoteOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, "owner")
	voter := f.account(t, "voter")
	entryID := f.poll(t, owner.ID, "tea", "coffee")

	require.NoError(t, f.toggles.CastVote(ctx, voter.ID, entryID, 0))

	entry, err := f.entries.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Options[0].Votes)
	assert.Equal(t, 0, entry.Options[1].Votes)
	assert.True(t, entry.HasVoted(voter.ID))

	gotVoter, err := f.accounts.GetByID(ctx, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, VoteReward, gotVoter.Points)

	// second vote is a silent no-op, even for a different option
	require.NoError(t, f.toggles.CastVote(ctx, voter.ID, entryID, 1))

	entry, err = f.entries.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Options[0].Votes)
	assert.Equal(t, 0, entry.Options[1].Votes)
	assert.Len(t, entry.VotedBy, 1)

	gotVoter, err = f.accounts.GetByID(ctx, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, VoteReward, gotVoter.Points, "the no-op vote must not pay again")
}

func TestCastVoteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, "owner")
	voter := f.account(t, "voter")
	journalID := f.journal(t, owner.ID, "not a poll")
	pollID := f.poll(t, owner.ID, "tea", "coffee")

	assert.ErrorIs(t, f.toggles.CastVote(ctx, voter.ID, journalID, 0), ErrNotVoting)
	assert.ErrorIs(t, f.toggles.CastVote(ctx, voter.ID, pollID, 2), ErrOptionOutOfRange)
	assert.ErrorIs(t, f.toggles.CastVote(ctx, voter.ID, pollID, -1), ErrOptionOutOfRange)
	assert.ErrorIs(t, f.toggles.CastVote(ctx, voter.ID, "missing", 0), repositories.ErrNotFound)

	entry, err := f.entries.GetByID(ctx, pollID)
	require.NoError(t, err)
	assert.Empty(t, entry.VotedBy, "rejected votes must not be recorded")

	gotVoter, err := f.accounts.GetByID(ctx, voter.ID)
	require.NoError(t, err)
	assert.Zero(t, gotVoter.Points)
}

func TestVoteTotalsMatchVoterSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, "owner")
	entryID := f.poll(t, owner.ID, "tea", "coffee", "water")

	choices := []int{0, 1, 1, 2, 0}
	for _, choice := range choices {
		voter := f.account(t, "voter")
		require.NoError(t, f.toggles.CastVote(ctx, voter.ID, entryID, choice))
	}

	entry, err := f.entries.GetByID(ctx, entryID)
	require.NoError(t, err)
	total := 0
	for _, opt := range entry.Options {
		total += opt.Votes
	}
	assert.Equal(t, len(choices), total)
	assert.Equal(t, len(entry.VotedBy), total)
	assert.Equal(t, 2, entry.Options[0].Votes)
	assert.Equal(t, 2, entry.Options[1].Votes)
	assert.Equal(t, 1, entry.Options[2].Votes)
}
