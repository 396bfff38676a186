// Package ledger holds the point-accumulation and level-derivation logic.
// Level is a pure function of points: level = points/50 + 1.
package ledger

import (
	"context"
	"errors"

	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/repositories"
	"go.uber.org/zap"
)

// LevelUp is the advisory event emitted after a committed award raised the
// account's level. Delivery is at-most-once: events are dropped when nobody
// drains the channel, and a crash after commit loses the event.
type LevelUp struct {
	AccountID string
	Level     int
}

// Engine awards points to accounts and keeps the derived level consistent
// with the committed point total.
type Engine struct {
	accounts repositories.AccountRepository
	log      *zap.Logger
	events   chan LevelUp
}

// NewEngine creates a ledger engine over the given account repository.
func NewEngine(accounts repositories.AccountRepository, log *zap.Logger) *Engine {
	return &Engine{
		accounts: accounts,
		log:      log,
		events:   make(chan LevelUp, 16),
	}
}

// Level derives the level for a point total.
func Level(points int) int {
	return points/models.PointsPerLevel + 1
}

// Events exposes the level-up event stream.
func (e *Engine) Events() <-chan LevelUp {
	return e.events
}

// AwardPoints adds amount to the account's points and recomputes the level,
// retrying the read-modify-write on conflict so concurrent awards against the
// same account never lose an update. A missing account is logged and
// swallowed: the award is recoverable, not fatal.
func (e *Engine) AwardPoints(ctx context.Context, accountID string, amount int) error {
	var up *LevelUp
	err := WithConflictRetry(ctx, MaxAttempts, func(ctx context.Context) error {
		up = nil
		acc, err := e.accounts.GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		oldLevel := acc.Level
		acc.Points += amount
		if acc.Points < 0 {
			acc.Points = 0
		}
		acc.Level = Level(acc.Points)
		if err := e.accounts.Replace(ctx, acc); err != nil {
			return err
		}
		if acc.Level > oldLevel {
			up = &LevelUp{AccountID: acc.ID, Level: acc.Level}
		}
		return nil
	})
	if errors.Is(err, repositories.ErrNotFound) {
		e.log.Warn("point award for unknown account",
			zap.String("account_id", accountID),
			zap.Int("amount", amount))
		return nil
	}
	if err != nil {
		e.log.Error("point award failed",
			zap.String("account_id", accountID),
			zap.Int("amount", amount),
			zap.Error(err))
		return err
	}
	if up != nil {
		select {
		case e.events <- *up:
		default:
			// no consumer; the toast is lost, the points are not
		}
	}
	return nil
}
