package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/moodlink-app/backend/internal/repositories"
)

// MaxAttempts is how often a conflicted read-modify-write is retried before
// the operation is surfaced as a transient failure.
const MaxAttempts = 5

// ErrConflictExhausted is returned when an operation kept losing against
// concurrent writers for MaxAttempts rounds. Callers may retry the whole
// user action.
var ErrConflictExhausted = errors.New("conflict retries exhausted")

// WithConflictRetry runs fn until it returns something other than
// repositories.ErrConflict, up to maxAttempts rounds. fn must re-read its
// documents on every round; committing from a stale snapshot is exactly the
// lost-update bug this helper exists to prevent.
func WithConflictRetry(ctx context.Context, maxAttempts int, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn(ctx)
		if !errors.Is(err, repositories.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrConflictExhausted, maxAttempts, err)
}
