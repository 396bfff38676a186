// Package engagement implements the per-entry like, bookmark and vote state.
// Each toggle is keyed by (account, entry); votes are one-directional and
// cannot be retracted.
package engagement

import (
	"context"
	"errors"

	"github.com/moodlink-app/backend/internal/ledger"
	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/notify"
	"github.com/moodlink-app/backend/internal/repositories"
	"go.uber.org/zap"
)

// Point rewards for engagement actions.
const (
	LikeReward = 1 // paid to the entry owner, never for self-likes
	VoteReward = 1 // paid to the voter
)

var (
	// ErrNotVoting rejects a vote against an entry that is not a poll.
	ErrNotVoting = errors.New("entry is not a voting entry")
	// ErrOptionOutOfRange rejects a vote for a nonexistent option.
	ErrOptionOutOfRange = errors.New("option index out of range")
)

// Notifier is the slice of notify.Center the toggles need.
type Notifier interface {
	Publish(ctx context.Context, ev notify.Event)
}

// Toggles mutates the engagement sets on entries. Set membership and the
// derived counters always commit together in one conditional replace.
type Toggles struct {
	entries  repositories.EntryRepository
	ledger   *ledger.Engine
	notifier Notifier
	log      *zap.Logger
}

// NewToggles creates the engagement toggle component.
func NewToggles(entries repositories.EntryRepository, eng *ledger.Engine, notifier Notifier, log *zap.Logger) *Toggles {
	return &Toggles{entries: entries, ledger: eng, notifier: notifier, log: log}
}

// ToggleLike flips the account's membership in the entry's liked_by set and
// keeps the likes counter equal to the set size. Inserting pays LikeReward to
// the entry owner unless the liker owns the entry; a self-like still counts.
func (t *Toggles) ToggleLike(ctx context.Context, accountID, entryID string) (bool, error) {
	var liked bool
	var ownerID, snippet string
	err := ledger.WithConflictRetry(ctx, ledger.MaxAttempts, func(ctx context.Context) error {
		entry, err := t.entries.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.HasLiked(accountID) {
			entry.LikedBy = models.RemoveFromSet(entry.LikedBy, accountID)
			liked = false
		} else {
			entry.LikedBy = models.AddToSet(entry.LikedBy, accountID)
			liked = true
		}
		entry.Likes = len(entry.LikedBy)
		ownerID = entry.OwnerID
		snippet = entry.Content
		return t.entries.Replace(ctx, entry)
	})
	if err != nil {
		t.log.Error("like toggle failed",
			zap.String("account_id", accountID),
			zap.String("entry_id", entryID),
			zap.Error(err))
		return false, err
	}

	if liked && ownerID != accountID {
		if err := t.ledger.AwardPoints(ctx, ownerID, LikeReward); err != nil {
			t.log.Warn("like reward not paid", zap.String("owner_id", ownerID), zap.Error(err))
		}
		t.notifier.Publish(ctx, notify.Event{
			Type:        models.NotificationLike,
			ActorID:     accountID,
			RecipientID: ownerID,
			EntryID:     entryID,
			Snippet:     snippet,
		})
	}
	return liked, nil
}

// ToggleBookmark flips the account's membership in the entry's bookmarked_by
// set. No counters, no points, no notification.
func (t *Toggles) ToggleBookmark(ctx context.Context, accountID, entryID string) (bool, error) {
	var bookmarked bool
	err := ledger.WithConflictRetry(ctx, ledger.MaxAttempts, func(ctx context.Context) error {
		entry, err := t.entries.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.HasBookmarked(accountID) {
			entry.BookmarkedBy = models.RemoveFromSet(entry.BookmarkedBy, accountID)
			bookmarked = false
		} else {
			entry.BookmarkedBy = models.AddToSet(entry.BookmarkedBy, accountID)
			bookmarked = true
		}
		return t.entries.Replace(ctx, entry)
	})
	if err != nil {
		t.log.Error("bookmark toggle failed",
			zap.String("account_id", accountID),
			zap.String("entry_id", entryID),
			zap.Error(err))
		return false, err
	}
	return bookmarked, nil
}

// CastVote records the account's vote for the given option. A second vote by
// the same account is a silent no-op regardless of the chosen option. The
// option index is validated against the freshly read entry on every attempt.
// A committed vote pays VoteReward to the voter.
func (t *Toggles) CastVote(ctx context.Context, accountID, entryID string, optionIndex int) error {
	if optionIndex < 0 {
		return ErrOptionOutOfRange
	}

	var voted bool
	err := ledger.WithConflictRetry(ctx, ledger.MaxAttempts, func(ctx context.Context) error {
		voted = false
		entry, err := t.entries.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Kind != models.KindVoting {
			return ErrNotVoting
		}
		if optionIndex >= len(entry.Options) {
			return ErrOptionOutOfRange
		}
		if entry.HasVoted(accountID) {
			return nil
		}
		entry.Options[optionIndex].Votes++
		entry.VotedBy = models.AddToSet(entry.VotedBy, accountID)
		voted = true
		return t.entries.Replace(ctx, entry)
	})
	if err != nil {
		t.log.Error("vote failed",
			zap.String("account_id", accountID),
			zap.String("entry_id", entryID),
			zap.Error(err))
		return err
	}

	if voted {
		if err := t.ledger.AwardPoints(ctx, accountID, VoteReward); err != nil {
			t.log.Warn("vote reward not paid", zap.String("account_id", accountID), zap.Error(err))
		}
	}
	return nil
}
