package repositories

import (
	"sync"
	"time"

	"github.com/moodlink-app/backend/internal/models"
)

// MemoryNotificationRepository is an in-process NotificationRepository. It
// counts mutating calls so tests can assert that no-op bulk reads issue no
// write.
type MemoryNotificationRepository struct {
	mu            sync.Mutex
	notifications []models.Notification
	nextID        uint
	writes        int
}

// NewMemoryNotificationRepository creates an empty in-memory notification repository
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{nextID: 1}
}

func (r *MemoryNotificationRepository) Create(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = r.nextID
	r.nextID++
	notification.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *notification)
	r.writes++
	return nil
}

func (r *MemoryNotificationRepository) ListByRecipient(recipientID string, page, limit int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []models.Notification
	// notifications are appended in creation order; walk backwards for newest-first
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].RecipientID == recipientID {
			all = append(all, r.notifications[i])
		}
	}
	total := int64(len(all))

	offset := (page - 1) * limit
	if offset >= len(all) {
		return []models.Notification{}, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *MemoryNotificationRepository) UnreadCount(recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *MemoryNotificationRepository) MarkAllRead(recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	for i := range r.notifications {
		if r.notifications[i].RecipientID == recipientID {
			r.notifications[i].IsRead = true
		}
	}
	return nil
}

// WriteCount reports how many mutating store calls have been issued.
func (r *MemoryNotificationRepository) WriteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}
