package repository

import (
	"context"
	"errors"
	"time"

	"shutterdesk/internal/database"
	"shutterdesk/internal/models"
	"shutterdesk/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoNotificationRepository struct {
	coll   *mongo.Collection
	logger *observability.RepoLogger
}

// NewMongoNotificationRepository returns a NotificationRepository backed by a Mongo collection.
func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{
		coll:   db.Collection(database.NotificationCollection),
		logger: observability.NewRepoLogger(database.NotificationCollection, BackendMongo),
	}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"id": n.ID, "type": n.Type, "recipient_id": n.RecipientID})
	return nil
}

func (r *mongoNotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Notification", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &n, nil
}

func (r *mongoNotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at}})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if n == 0 {
		return false, models.NewNotFoundError("Notification", id)
	}
	return false, nil
}

func (r *mongoNotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at}})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoNotificationRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(clampLimit(limit))).
		SetSkip(int64(offset))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := []*models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *mongoNotificationRepository) ListUnread(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	return r.find(ctx, bson.M{"recipient_id": recipientID, "read": false}, limit, 0)
}

func (r *mongoNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*models.Notification, error) {
	return r.find(ctx, bson.M{"recipient_id": recipientID}, limit, offset)
}

func (r *mongoNotificationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	r.logger.LogDelete(ctx, map[string]any{"id": id})
	return nil
}
