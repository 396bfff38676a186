package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moodlink-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryEntryRepository is an in-process EntryRepository with the same
// conditional-write semantics as the Mongo implementation.
type MemoryEntryRepository struct {
	mu      sync.Mutex
	entries map[string]*models.Entry
	hub     *signalHub
}

// NewMemoryEntryRepository creates an empty in-memory entry repository
func NewMemoryEntryRepository() *MemoryEntryRepository {
	return &MemoryEntryRepository{
		entries: make(map[string]*models.Entry),
		hub:     newSignalHub(),
	}
}

func (r *MemoryEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	r.mu.Lock()
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	entry.Version = 1
	r.entries[entry.ID.Hex()] = entry.Clone()
	r.mu.Unlock()
	r.hub.broadcast()
	return nil
}

func (r *MemoryEntryRepository) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.Clone(), nil
}

func (r *MemoryEntryRepository) Replace(ctx context.Context, entry *models.Entry) error {
	r.mu.Lock()
	stored, ok := r.entries[entry.ID.Hex()]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if stored.Version != entry.Version {
		r.mu.Unlock()
		return ErrConflict
	}
	entry.Version++
	entry.UpdatedAt = time.Now()
	r.entries[entry.ID.Hex()] = entry.Clone()
	r.mu.Unlock()
	r.hub.broadcast()
	return nil
}

func (r *MemoryEntryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.entries[id]; !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.entries, id)
	r.mu.Unlock()
	r.hub.broadcast()
	return nil
}

func (r *MemoryEntryRepository) List(ctx context.Context, skip, limit int64) ([]models.Entry, error) {
	return r.list(func(*models.Entry) bool { return true }, skip, limit)
}

func (r *MemoryEntryRepository) ListByOwner(ctx context.Context, ownerID string, skip, limit int64) ([]models.Entry, error) {
	return r.list(func(e *models.Entry) bool { return e.OwnerID == ownerID }, skip, limit)
}

func (r *MemoryEntryRepository) list(match func(*models.Entry) bool, skip, limit int64) ([]models.Entry, error) {
	r.mu.Lock()
	var entries []models.Entry
	for _, e := range r.entries {
		if match(e) {
			entries = append(entries, *e.Clone())
		}
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if skip >= int64(len(entries)) {
		return []models.Entry{}, nil
	}
	entries = entries[skip:]
	if limit > 0 && int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *MemoryEntryRepository) Watch(ctx context.Context) (<-chan struct{}, func(), error) {
	ch, cancel := r.hub.subscribe(ctx)
	return ch, cancel, nil
}
