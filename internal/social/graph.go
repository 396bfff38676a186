// Package social maintains the symmetric follower/following relation
// between accounts.
package social

import (
	"context"

	"github.com/moodlink-app/backend/internal/ledger"
	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/notify"
	"github.com/moodlink-app/backend/internal/repositories"
	"go.uber.org/zap"
)

// FollowReward is the number of points paid to an account gaining a follower.
const FollowReward = 2

// Notifier is the slice of notify.Center the graph needs.
type Notifier interface {
	Publish(ctx context.Context, ev notify.Event)
}

// Graph mutates the follow edge between two accounts. Both sides of the edge
// are committed together; the follow reward and the notification run after
// the commit as independent steps.
type Graph struct {
	accounts repositories.AccountRepository
	ledger   *ledger.Engine
	notifier Notifier
	log      *zap.Logger
}

// NewGraph creates a social graph mutator.
func NewGraph(accounts repositories.AccountRepository, eng *ledger.Engine, notifier Notifier, log *zap.Logger) *Graph {
	return &Graph{accounts: accounts, ledger: eng, notifier: notifier, log: log}
}

// ToggleFollow flips whether actor follows target and reports the resulting
// state. A self-follow is a silent no-op. On the follow path the target is
// paid FollowReward points and receives a follow notification; the unfollow
// path deducts nothing, follow rewards are sticky.
func (g *Graph) ToggleFollow(ctx context.Context, actorID, targetID string) (bool, error) {
	if actorID == targetID {
		return false, nil
	}

	var following bool
	err := ledger.WithConflictRetry(ctx, ledger.MaxAttempts, func(ctx context.Context) error {
		actor, err := g.accounts.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		target, err := g.accounts.GetByID(ctx, targetID)
		if err != nil {
			return err
		}

		if actor.IsFollowing(targetID) {
			actor.Following = models.RemoveFromSet(actor.Following, targetID)
			target.Followers = models.RemoveFromSet(target.Followers, actorID)
			following = false
		} else {
			actor.Following = models.AddToSet(actor.Following, targetID)
			target.Followers = models.AddToSet(target.Followers, actorID)
			following = true
		}
		return g.accounts.ReplacePair(ctx, actor, target)
	})
	if err != nil {
		g.log.Error("follow toggle failed",
			zap.String("actor_id", actorID),
			zap.String("target_id", targetID),
			zap.Error(err))
		return false, err
	}

	if following {
		// Sequential with the edge commit: a crash here leaves the edge in
		// place with the reward unpaid.
		if err := g.ledger.AwardPoints(ctx, targetID, FollowReward); err != nil {
			g.log.Warn("follow reward not paid", zap.String("target_id", targetID), zap.Error(err))
		}
		g.notifier.Publish(ctx, notify.Event{
			Type:        models.NotificationFollow,
			ActorID:     actorID,
			RecipientID: targetID,
		})
	}
	return following, nil
}
