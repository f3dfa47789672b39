package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProgramItemRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramItemRepository creates a new ProgramItem repository.
func NewMongoProgramItemRepository(db *mongo.Database) repository.ProgramItemRepository {
	return &mongoProgramItemRepository{
		collection: db.Collection(programItemCollectionName),
	}
}

// Create inserts a new template item.
func (r *mongoProgramItemRepository) Create(ctx context.Context, item *domain.ProgramItem) (primitive.ObjectID, error) {
	if item.DayID == primitive.NilObjectID || item.ProgramID == primitive.NilObjectID || item.Title == "" {
		return primitive.NilObjectID, errors.New("item requires programId, dayId, and title")
	}
	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return primitive.NilObjectID, err
	}
	return item.ID, nil
}

func (r *mongoProgramItemRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramItem, error) {
	var item domain.ProgramItem
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *mongoProgramItemRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ProgramItem, error) {
	if len(ids) == 0 {
		return []domain.ProgramItem{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoProgramItemRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramItem, error) {
	return r.find(ctx, bson.M{"programId": programID})
}

func (r *mongoProgramItemRepository) GetByDayID(ctx context.Context, dayID primitive.ObjectID) ([]domain.ProgramItem, error) {
	return r.find(ctx, bson.M{"dayId": dayID})
}

// find sorts by sortOrder, breaking ties by insertion.
func (r *mongoProgramItemRepository) find(ctx context.Context, filter bson.M) ([]domain.ProgramItem, error) {
	items := []domain.ProgramItem{}
	findOptions := options.Find().SetSort(bson.D{
		{Key: "sortOrder", Value: 1},
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	if err = decodeAll(ctx, cursor, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites an item's content fields. Day and program never change.
func (r *mongoProgramItemRepository) Update(ctx context.Context, item *domain.ProgramItem) error {
	item.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"type":      item.Type,
			"title":     item.Title,
			"content":   item.Content,
			"sortOrder": item.SortOrder,
			"updatedAt": item.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": item.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoProgramItemRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoProgramItemRepository) DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"programId": programID})
	return err
}

// EnsureProgramItemIndexes creates necessary indexes. Call during startup.
func EnsureProgramItemIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "dayId", Value: 1}, {Key: "sortOrder", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}},
			Options: options.Index(),
		},
	})
}
