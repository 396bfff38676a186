package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlink-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccountRepository defines the interface for account data operations.
//
// Replace and ReplacePair are conditional writes: the account's Version field
// must still match the stored document, otherwise ErrConflict is returned and
// no change is made. On success the stored version is bumped and the passed
// struct's Version is updated to match.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*models.Account, error)
	Replace(ctx context.Context, account *models.Account) error
	ReplacePair(ctx context.Context, a, b *models.Account) error
	List(ctx context.Context) ([]models.Account, error)
	Search(ctx context.Context, query string) ([]models.Account, error)
	Watch(ctx context.Context) (<-chan struct{}, func(), error)
}

// MongoAccountRepository implements AccountRepository for MongoDB
type MongoAccountRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoAccountRepository creates a new MongoAccountRepository
func NewMongoAccountRepository(client *mongo.Client, db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{client: client, collection: db.Collection("accounts")}
}

// Create inserts a new account document
func (r *MongoAccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	account.Version = 1
	if account.Followers == nil {
		account.Followers = []string{}
	}
	if account.Following == nil {
		account.Following = []string{}
	}
	_, err := r.collection.InsertOne(ctx, account)
	return err
}

// GetByID retrieves an account by its identifier
func (r *MongoAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail retrieves an account by email
func (r *MongoAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByFirebaseUID retrieves an account by its Firebase UID
func (r *MongoAccountRepository) GetByFirebaseUID(ctx context.Context, uid string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"firebase_uid": uid})
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var account models.Account
	err := r.collection.FindOne(ctx, filter).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Replace commits the account document if its stored version still matches
// account.Version.
func (r *MongoAccountRepository) Replace(ctx context.Context, account *models.Account) error {
	readVersion := account.Version
	next := account.Clone()
	next.Version = readVersion + 1
	next.UpdatedAt = time.Now()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": account.ID, "version": readVersion}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.classifyMiss(ctx, account.ID)
	}
	account.Version = next.Version
	account.UpdatedAt = next.UpdatedAt
	return nil
}

// ReplacePair commits two account documents inside one transaction; either
// both conditional replaces succeed or neither is applied.
func (r *MongoAccountRepository) ReplacePair(ctx context.Context, a, b *models.Account) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	now := time.Now()
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, acc := range []*models.Account{a, b} {
			next := acc.Clone()
			next.Version = acc.Version + 1
			next.UpdatedAt = now
			res, err := r.collection.ReplaceOne(sc, bson.M{"_id": acc.ID, "version": acc.Version}, next)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, r.classifyMiss(sc, acc.ID)
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	a.Version++
	b.Version++
	a.UpdatedAt = now
	b.UpdatedAt = now
	return nil
}

// classifyMiss distinguishes a lost conditional write from a missing document.
func (r *MongoAccountRepository) classifyMiss(ctx context.Context, id string) error {
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Err()
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// List retrieves all accounts ordered by points descending
func (r *MongoAccountRepository) List(ctx context.Context) ([]models.Account, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "points", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []models.Account
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Search finds accounts whose name or email matches the query (case-insensitive)
func (r *MongoAccountRepository) Search(ctx context.Context, query string) ([]models.Account, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"name": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"email": bson.M{"$regex": query, "$options": "i"}},
	}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []models.Account
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Watch emits a signal for every change to the accounts collection until the
// returned cancel func is called. Consumers re-query on each signal.
func (r *MongoAccountRepository) Watch(ctx context.Context) (<-chan struct{}, func(), error) {
	return watchCollection(ctx, r.collection)
}

// watchCollection adapts a Mongo change stream into a coalescing signal
// channel shared by the account and entry repositories.
func watchCollection(ctx context.Context, coll *mongo.Collection) (<-chan struct{}, func(), error) {
	stream, err := coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, nil, err
	}

	wctx, cancel := context.WithCancel(ctx)
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())
		for stream.Next(wctx) {
			select {
			case ch <- struct{}{}:
			default: // a signal is already pending; coalesce
			}
		}
	}()
	return ch, cancel, nil
}
