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

type mongoOverrideRepository struct {
	collection *mongo.Collection
}

// NewMongoOverrideRepository creates a new override repository.
func NewMongoOverrideRepository(db *mongo.Database) repository.OverrideRepository {
	return &mongoOverrideRepository{
		collection: db.Collection(overrideCollectionName),
	}
}

func (r *mongoOverrideRepository) Create(ctx context.Context, o *domain.ProgramItemOverride) (primitive.ObjectID, error) {
	if o.ClientProgramID == primitive.NilObjectID || o.ProgramDayID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("override requires clientProgramId and programDayId")
	}
	o.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return primitive.NilObjectID, err
	}
	return o.ID, nil
}

func (r *mongoOverrideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramItemOverride, error) {
	var o domain.ProgramItemOverride
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *mongoOverrideRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ProgramItemOverride, error) {
	if len(ids) == 0 {
		return []domain.ProgramItemOverride{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// GetByClientProgramID returns overrides in creation order, which the merge
// relies on to pick the latest replace.
func (r *mongoOverrideRepository) GetByClientProgramID(ctx context.Context, clientProgramID primitive.ObjectID) ([]domain.ProgramItemOverride, error) {
	return r.find(ctx, bson.M{"clientProgramId": clientProgramID})
}

func (r *mongoOverrideRepository) find(ctx context.Context, filter bson.M) ([]domain.ProgramItemOverride, error) {
	overrides := []domain.ProgramItemOverride{}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	if err = decodeAll(ctx, cursor, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

// Update rewrites the content fields. Action, day and source are fixed at creation.
func (r *mongoOverrideRepository) Update(ctx context.Context, o *domain.ProgramItemOverride) error {
	o.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"type":      o.Type,
		"title":     o.Title,
		"content":   o.Content,
		"updatedAt": o.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if o.SortOrder != nil {
		set["sortOrder"] = *o.SortOrder
	} else {
		update["$unset"] = bson.M{"sortOrder": ""}
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": o.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoOverrideRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoOverrideRepository) DeleteBySourceItemID(ctx context.Context, itemID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"sourceItemId": itemID}
	found, err := r.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, len(found))
	for i, o := range found {
		ids[i] = o.ID
	}
	if _, err = r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *mongoOverrideRepository) DeleteByClientProgramIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"clientProgramId": bson.M{"$in": ids}})
	return err
}

// EnsureOverrideIndexes creates necessary indexes. Call during startup.
func EnsureOverrideIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientProgramId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "sourceItemId", Value: 1}},
			Options: options.Index().SetSparse(true), // add overrides carry no source
		},
	})
}
