package repositories

import (
	"github.com/moodlink-app/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id uint) (*models.Comment, error)
	ListByEntry(entryID string) ([]models.Comment, error)
	Delete(id uint) error
	DeleteByEntry(entryID string) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *PostgresCommentRepository) GetByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (r *PostgresCommentRepository) ListByEntry(entryID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Where("entry_id = ?", entryID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

func (r *PostgresCommentRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByEntry removes all comments attached to an entry; used when the
// owner deletes the entry itself.
func (r *PostgresCommentRepository) DeleteByEntry(entryID string) error {
	return r.db.Where("entry_id = ?", entryID).Delete(&models.Comment{}).Error
}
