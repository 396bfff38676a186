package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/moodlink-app/backend/internal/models"
)

// MemoryAccountRepository is an in-process AccountRepository with the same
// conditional-write semantics as the Mongo implementation. It backs tests and
// local development without a database.
type MemoryAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	hub      *signalHub
}

// NewMemoryAccountRepository creates an empty in-memory account repository
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]*models.Account),
		hub:      newSignalHub(),
	}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	account.Version = 1
	if account.Followers == nil {
		account.Followers = []string{}
	}
	if account.Following == nil {
		account.Following = []string{}
	}
	r.accounts[account.ID] = account.Clone()
	r.mu.Unlock()
	r.hub.broadcast()
	return nil
}

func (r *MemoryAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return acc.Clone(), nil
}

func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findBy(func(a *models.Account) bool { return a.Email == email })
}

func (r *MemoryAccountRepository) GetByFirebaseUID(ctx context.Context, uid string) (*models.Account, error) {
	return r.findBy(func(a *models.Account) bool { return a.FirebaseUID == uid })
}

func (r *MemoryAccountRepository) findBy(match func(*models.Account) bool) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if match(acc) {
			return acc.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryAccountRepository) Replace(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	if err := r.replaceLocked(account); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()
	r.hub.broadcast()
	return nil
}

func (r *MemoryAccountRepository) ReplacePair(ctx context.Context, a, b *models.Account) error {
	r.mu.Lock()
	if err := r.checkLocked(a); err != nil {
		r.mu.Unlock()
		return err
	}
	if err := r.checkLocked(b); err != nil {
		r.mu.Unlock()
		return err
	}
	r.replaceLocked(a)
	r.replaceLocked(b)
	r.mu.Unlock()
	r.hub.broadcast()
	return nil
}

func (r *MemoryAccountRepository) checkLocked(account *models.Account) error {
	stored, ok := r.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != account.Version {
		return ErrConflict
	}
	return nil
}

func (r *MemoryAccountRepository) replaceLocked(account *models.Account) error {
	if err := r.checkLocked(account); err != nil {
		return err
	}
	account.Version++
	account.UpdatedAt = time.Now()
	r.accounts[account.ID] = account.Clone()
	return nil
}

func (r *MemoryAccountRepository) List(ctx context.Context) ([]models.Account, error) {
	r.mu.Lock()
	accounts := make([]models.Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		accounts = append(accounts, *acc.Clone())
	}
	r.mu.Unlock()
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Points > accounts[j].Points })
	return accounts, nil
}

func (r *MemoryAccountRepository) Search(ctx context.Context, query string) ([]models.Account, error) {
	q := strings.ToLower(query)
	r.mu.Lock()
	defer r.mu.Unlock()
	var accounts []models.Account
	for _, acc := range r.accounts {
		if strings.Contains(strings.ToLower(acc.Name), q) || strings.Contains(strings.ToLower(acc.Email), q) {
			accounts = append(accounts, *acc.Clone())
		}
	}
	return accounts, nil
}

func (r *MemoryAccountRepository) Watch(ctx context.Context) (<-chan struct{}, func(), error) {
	ch, cancel := r.hub.subscribe(ctx)
	return ch, cancel, nil
}
