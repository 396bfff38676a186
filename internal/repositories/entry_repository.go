package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlink-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EntryRepository defines the interface for entry data operations. Replace
// follows the same conditional-write contract as AccountRepository.Replace.
type EntryRepository interface {
	Create(ctx context.Context, entry *models.Entry) error
	GetByID(ctx context.Context, id string) (*models.Entry, error)
	Replace(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, skip, limit int64) ([]models.Entry, error)
	ListByOwner(ctx context.Context, ownerID string, skip, limit int64) ([]models.Entry, error)
	Watch(ctx context.Context) (<-chan struct{}, func(), error)
}

// MongoEntryRepository implements EntryRepository for MongoDB
type MongoEntryRepository struct {
	collection *mongo.Collection
}

// NewMongoEntryRepository creates a new MongoEntryRepository
func NewMongoEntryRepository(db *mongo.Database) *MongoEntryRepository {
	return &MongoEntryRepository{collection: db.Collection("entries")}
}

// Create inserts a new entry document
func (r *MongoEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	entry.Version = 1
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// GetByID retrieves an entry by ID
func (r *MongoEntryRepository) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid entry ID format: %w", err)
	}

	var entry models.Entry
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Replace commits the entry document if its stored version still matches
// entry.Version.
func (r *MongoEntryRepository) Replace(ctx context.Context, entry *models.Entry) error {
	readVersion := entry.Version
	next := entry.Clone()
	next.Version = readVersion + 1
	next.UpdatedAt = time.Now()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID, "version": readVersion}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		ferr := r.collection.FindOne(ctx, bson.M{"_id": entry.ID}).Err()
		if ferr == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		if ferr != nil {
			return ferr
		}
		return ErrConflict
	}
	entry.Version = next.Version
	entry.UpdatedAt = next.UpdatedAt
	return nil
}

// Delete removes an entry by ID
func (r *MongoEntryRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid entry ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves entries newest-first with pagination
func (r *MongoEntryRepository) List(ctx context.Context, skip, limit int64) ([]models.Entry, error) {
	return r.find(ctx, bson.D{}, skip, limit)
}

// ListByOwner retrieves entries by a specific owner newest-first
func (r *MongoEntryRepository) ListByOwner(ctx context.Context, ownerID string, skip, limit int64) ([]models.Entry, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID}, skip, limit)
}

func (r *MongoEntryRepository) find(ctx context.Context, filter interface{}, skip, limit int64) ([]models.Entry, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.Entry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Watch emits a signal for every change to the entries collection
func (r *MongoEntryRepository) Watch(ctx context.Context) (<-chan struct{}, func(), error) {
	return watchCollection(ctx, r.collection)
}
