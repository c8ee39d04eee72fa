package repositories

import (
	"context"
	"time"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository defines the interface for the social activity journal
type ActivityRepository interface {
	Record(ctx context.Context, activity *models.Activity) error
	ListByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Activity, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// MongoActivityRepository implements ActivityRepository for MongoDB
type MongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new MongoActivityRepository
func NewMongoActivityRepository(db *mongo.Database) *MongoActivityRepository {
	return &MongoActivityRepository{collection: db.Collection("activities")}
}

// EnsureIndexes creates the per-user lookup indexes. Safe to call on every start.
func (r *MongoActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// Record appends an activity to the journal
func (r *MongoActivityRepository) Record(ctx context.Context, activity *models.Activity) error {
	activity.ID = primitive.NewObjectID()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, activity)
	return err
}

// visibleToUser matches activities the user performed, plus those aimed at them whose
// type the target is allowed to see.
func visibleToUser(userID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"actor_id": userID},
		bson.M{
			"target_id": userID,
			"type":      bson.M{"$nin": models.ActorOnlyActivityTypes},
		},
	}}
}

// involvingUser matches every activity the user takes part in.
func involvingUser(userID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"actor_id": userID},
		bson.M{"target_id": userID},
	}}
}

// ListByUser returns the activities visible to the user, newest first
func (r *MongoActivityRepository) ListByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Activity, error) {
	filter := visibleToUser(userID)
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// DeleteByUser removes every activity the user takes part in and returns how many were
// deleted.
func (r *MongoActivityRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, involvingUser(userID))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// NopActivityRepository discards activities. Used when no MongoDB is configured.
type NopActivityRepository struct{}

func (NopActivityRepository) Record(context.Context, *models.Activity) error { return nil }

func (NopActivityRepository) ListByUser(context.Context, string, int64, int64) ([]models.Activity, error) {
	return []models.Activity{}, nil
}

func (NopActivityRepository) DeleteByUser(context.Context, string) (int64, error) { return 0, nil }
