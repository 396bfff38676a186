// Package notify creates notifications and serves them back as live,
// per-recipient snapshot feeds with a derived unread count.
package notify

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/repositories"
	"go.uber.org/zap"
)

// snapshotLimit caps how many records a feed snapshot carries.
const snapshotLimit = 50

// Event describes a social action that should notify its recipient.
type Event struct {
	Type        string
	ActorID     string
	RecipientID string
	EntryID     string
	Snippet     string
}

// Snapshot is the full current state of a recipient's notification feed,
// newest first. Consumers replace their view with each snapshot; snapshots
// are never deltas.
type Snapshot struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

// Center turns events into stored notifications and pushes fresh snapshots
// to subscribed recipients after every change.
type Center struct {
	repo     repositories.NotificationRepository
	accounts repositories.AccountRepository
	log      *zap.Logger

	mu   sync.Mutex
	subs map[string]map[int]chan struct{} // recipient -> subscriber signals
	next int
}

// NewCenter creates a notification center.
func NewCenter(repo repositories.NotificationRepository, accounts repositories.AccountRepository, log *zap.Logger) *Center {
	return &Center{
		repo:     repo,
		accounts: accounts,
		log:      log,
		subs:     make(map[string]map[int]chan struct{}),
	}
}

// Publish stores a notification for the event and wakes the recipient's
// feeds. Self-directed events are dropped. Failures are logged, never
// returned: a lost notification must not fail the action that caused it.
func (c *Center) Publish(ctx context.Context, ev Event) {
	if ev.ActorID == ev.RecipientID {
		return
	}
	actorName := ""
	if actor, err := c.accounts.GetByID(ctx, ev.ActorID); err == nil {
		actorName = actor.Name
	}
	n := &models.Notification{
		Type:        ev.Type,
		ActorID:     ev.ActorID,
		ActorName:   actorName,
		RecipientID: ev.RecipientID,
		EntryID:     ev.EntryID,
		Snippet:     truncate(ev.Snippet, 80),
	}
	if err := c.repo.Create(n); err != nil {
		c.log.Error("notification create failed",
			zap.String("type", ev.Type),
			zap.String("recipient_id", ev.RecipientID),
			zap.Error(err))
		return
	}
	c.wake(ev.RecipientID)
}

// List returns a page of the recipient's notifications, newest first.
func (c *Center) List(recipientID string, page, limit int) ([]models.Notification, int64, error) {
	return c.repo.ListByRecipient(recipientID, page, limit)
}

// UnreadCount returns the recipient's number of unread notifications.
func (c *Center) UnreadCount(recipientID string) (int64, error) {
	return c.repo.UnreadCount(recipientID)
}

// MarkAllRead transitions every unread notification for the recipient to
// read in one bulk write. With nothing unread it returns without issuing a
// write.
func (c *Center) MarkAllRead(recipientID string) error {
	unread, err := c.repo.UnreadCount(recipientID)
	if err != nil {
		return err
	}
	if unread == 0 {
		return nil
	}
	if err := c.repo.MarkAllRead(recipientID); err != nil {
		return err
	}
	c.wake(recipientID)
	return nil
}

// Subscribe opens a live feed for the recipient. The current snapshot is
// delivered immediately and a fresh one after every change, until cancel is
// called or ctx is done. Callers must call cancel; a leaked subscription
// keeps delivering to a dead consumer.
func (c *Center) Subscribe(ctx context.Context, recipientID string) (<-chan Snapshot, func(), error) {
	signal := make(chan struct{}, 1)

	c.mu.Lock()
	id := c.next
	c.next++
	if c.subs[recipientID] == nil {
		c.subs[recipientID] = make(map[int]chan struct{})
	}
	c.subs[recipientID][id] = signal
	c.mu.Unlock()

	out := make(chan Snapshot, 1)
	sctx, cancel := context.WithCancel(ctx)
	release := func() {
		cancel()
		c.mu.Lock()
		if m := c.subs[recipientID]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(c.subs, recipientID)
			}
		}
		c.mu.Unlock()
	}

	go func() {
		defer close(out)
		c.push(sctx, recipientID, out)
		for {
			select {
			case <-sctx.Done():
				return
			case <-signal:
				c.push(sctx, recipientID, out)
			}
		}
	}()
	return out, release, nil
}

// push queries the full feed state and delivers it, dropping the stale
// pending snapshot if the consumer has not caught up.
func (c *Center) push(ctx context.Context, recipientID string, out chan Snapshot) {
	notifications, _, err := c.repo.ListByRecipient(recipientID, 1, snapshotLimit)
	if err != nil {
		c.log.Error("notification feed query failed", zap.String("recipient_id", recipientID), zap.Error(err))
		return
	}
	unread, err := c.repo.UnreadCount(recipientID)
	if err != nil {
		c.log.Error("unread count query failed", zap.String("recipient_id", recipientID), zap.Error(err))
		return
	}
	snap := Snapshot{Notifications: notifications, Unread: unread}
	for {
		select {
		case <-ctx.Done():
			return
		case out <- snap:
			return
		default:
			select {
			case <-out: // discard superseded snapshot
			default:
			}
		}
	}
}

func (c *Center) wake(recipientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, signal := range c.subs[recipientID] {
		select {
		case signal <- struct{}{}:
		default:
		}
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
