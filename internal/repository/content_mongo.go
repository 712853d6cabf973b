package repository

import (
	"context"
	"errors"
	"regexp"

	"shutterdesk/internal/database"
	"shutterdesk/internal/models"
	"shutterdesk/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoContentRepository struct {
	coll   *mongo.Collection
	logger *observability.RepoLogger
}

// NewMongoContentRepository returns a ContentRepository backed by a Mongo collection.
func NewMongoContentRepository(db *mongo.Database) ContentRepository {
	return &mongoContentRepository{
		coll:   db.Collection(database.ContentCollection),
		logger: observability.NewRepoLogger(database.ContentCollection, BackendMongo),
	}
}

func (r *mongoContentRepository) Create(ctx context.Context, item *models.ContentItem) error {
	defer observability.TrackQuery(BackendMongo, "create", database.ContentCollection)()
	if _, err := r.coll.InsertOne(ctx, item); err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"id": item.ID, "kind": item.Kind, "status": item.Status})
	return nil
}

func (r *mongoContentRepository) GetByID(ctx context.Context, id string) (*models.ContentItem, error) {
	defer observability.TrackQuery(BackendMongo, "get", database.ContentCollection)()
	var item models.ContentItem
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("ContentItem", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

func (r *mongoContentRepository) UpdateIfUnchanged(ctx context.Context, item *models.ContentItem, expectedStatus models.Status, expectedVersion int64) error {
	defer observability.TrackQuery(BackendMongo, "update", database.ContentCollection)()
	ctx, span := observability.TraceRepositoryMethod(ctx, BackendMongo, "UpdateIfUnchanged", database.ContentCollection)
	defer span.End()
	filter := bson.M{"_id": item.ID, "status": expectedStatus, "version": expectedVersion}
	res, err := r.coll.ReplaceOne(ctx, filter, item)
	if err != nil {
		r.logger.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": item.ID})
		if err != nil {
			return models.NewInternalError(err)
		}
		if n == 0 {
			return models.NewNotFoundError("ContentItem", item.ID)
		}
		r.logger.LogConflict(ctx, map[string]any{"id": item.ID, "expected_status": expectedStatus, "expected_version": expectedVersion})
		return models.NewConcurrentModificationError(item.ID)
	}
	r.logger.LogUpdate(ctx, map[string]any{"id": item.ID, "status": item.Status, "version": item.Version})
	return nil
}

func (r *mongoContentRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery(BackendMongo, "delete", database.ContentCollection)()
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("ContentItem", id)
	}
	r.logger.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func contentFilterDoc(filter models.ContentFilter) bson.M {
	doc := bson.M{}
	if filter.Kind != "" {
		doc["kind"] = filter.Kind
	}
	if filter.Status != "" {
		doc["status"] = filter.Status
	}
	if filter.SubmitterID != "" {
		doc["submitter_id"] = filter.SubmitterID
	}
	if filter.VisibleOnHome != nil {
		doc["visible_on_home"] = *filter.VisibleOnHome
	}
	if s := normalizeSearch(filter.SearchText); s != "" {
		doc["search_text"] = bson.M{"$regex": regexp.QuoteMeta(s)}
	}
	return doc
}

func (r *mongoContentRepository) List(ctx context.Context, filter models.ContentFilter) ([]*models.ContentItem, error) {
	defer observability.TrackQuery(BackendMongo, "list", database.ContentCollection)()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(clampLimit(filter.Limit))).
		SetSkip(int64(filter.Offset))
	cur, err := r.coll.Find(ctx, contentFilterDoc(filter), opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	items := []*models.ContentItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *mongoContentRepository) CountByStatus(ctx context.Context, kind models.Kind) (models.ContentCounts, error) {
	defer observability.TrackQuery(BackendMongo, "count", database.ContentCollection)()
	match := bson.M{}
	if kind != "" {
		match["kind"] = kind
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	var counts models.ContentCounts
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return counts, models.NewInternalError(err)
	}
	var rows []struct {
		Status models.Status `bson:"_id"`
		Count  int64         `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return counts, models.NewInternalError(err)
	}
	for _, row := range rows {
		counts.Add(row.Status, row.Count)
	}
	return counts, nil
}
