package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoCompletionRepository stores day and item completions in two collections.
type mongoCompletionRepository struct {
	days  *mongo.Collection
	items *mongo.Collection
}

// NewMongoCompletionRepository creates a new completion repository.
func NewMongoCompletionRepository(db *mongo.Database) repository.CompletionRepository {
	return &mongoCompletionRepository{
		days:  db.Collection(dayCompletionCollectionName),
		items: db.Collection(itemCompletionCollection),
	}
}

// upsert runs an upserting update against a unique key. Two concurrent
// upserts of a missing row can both attempt the insert; the loser gets
// E11000 and a retry turns it into a plain update.
func upsert(ctx context.Context, collection *mongo.Collection, filter, update bson.M) (*mongo.UpdateResult, error) {
	opts := options.Update().SetUpsert(true)
	result, err := collection.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		result, err = collection.UpdateOne(ctx, filter, update, opts)
	}
	return result, err
}

func (r *mongoCompletionRepository) UpsertDay(ctx context.Context, c *domain.DayCompletion) error {
	filter := bson.M{"clientProgramId": c.ClientProgramID, "programDayId": c.ProgramDayID}
	update := bson.M{
		"$set":         bson.M{"completedAt": c.CompletedAt},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}
	result, err := upsert(ctx, r.days, filter, update)
	if err != nil {
		return err
	}
	if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
		c.ID = id
	}
	return nil
}

func (r *mongoCompletionRepository) DeleteDay(ctx context.Context, clientProgramID, dayID primitive.ObjectID) error {
	_, err := r.days.DeleteOne(ctx, bson.M{"clientProgramId": clientProgramID, "programDayId": dayID})
	return err
}

func (r *mongoCompletionRepository) GetDaysByClientProgramID(ctx context.Context, clientProgramID primitive.ObjectID) ([]domain.DayCompletion, error) {
	rows := []domain.DayCompletion{}
	cursor, err := r.days.Find(ctx, bson.M{"clientProgramId": clientProgramID})
	if err != nil {
		return nil, err
	}
	if err = decodeAll(ctx, cursor, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *mongoCompletionRepository) RecentDays(ctx context.Context, clientProgramIDs []primitive.ObjectID, limit int) ([]domain.DayCompletion, error) {
	rows := []domain.DayCompletion{}
	if len(clientProgramIDs) == 0 {
		return rows, nil
	}
	cursor, err := r.days.Find(ctx, bson.M{"clientProgramId": bson.M{"$in": clientProgramIDs}}, recentOptions(limit))
	if err != nil {
		return nil, err
	}
	if err = decodeAll(ctx, cursor, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertItem keys on the synthetic targetKey so template and override
// targets share one unique index with no nullable columns in it.
func (r *mongoCompletionRepository) UpsertItem(ctx context.Context, c *domain.ItemCompletion) error {
	if c.TargetKey == "" {
		return errors.New("item completion requires targetKey")
	}
	onInsert := bson.M{
		"_id":          primitive.NewObjectID(),
		"programDayId": c.ProgramDayID,
	}
	if c.ProgramItemID != nil {
		onInsert["programItemId"] = *c.ProgramItemID
	}
	if c.OverrideID != nil {
		onInsert["overrideId"] = *c.OverrideID
	}

	filter := bson.M{"clientProgramId": c.ClientProgramID, "targetKey": c.TargetKey}
	update := bson.M{
		"$set":         bson.M{"completedAt": c.CompletedAt},
		"$setOnInsert": onInsert,
	}
	result, err := upsert(ctx, r.items, filter, update)
	if err != nil {
		return err
	}
	if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
		c.ID = id
	}
	return nil
}

func (r *mongoCompletionRepository) DeleteItem(ctx context.Context, clientProgramID primitive.ObjectID, targetKey string) error {
	_, err := r.items.DeleteOne(ctx, bson.M{"clientProgramId": clientProgramID, "targetKey": targetKey})
	return err
}

func (r *mongoCompletionRepository) GetItemsByClientProgramID(ctx context.Context, clientProgramID primitive.ObjectID) ([]domain.ItemCompletion, error) {
	rows := []domain.ItemCompletion{}
	cursor, err := r.items.Find(ctx, bson.M{"clientProgramId": clientProgramID})
	if err != nil {
		return nil, err
	}
	if err = decodeAll(ctx, cursor, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *mongoCompletionRepository) RecentItems(ctx context.Context, clientProgramIDs []primitive.ObjectID, limit int) ([]domain.ItemCompletion, error) {
	rows := []domain.ItemCompletion{}
	if len(clientProgramIDs) == 0 {
		return rows, nil
	}
	cursor, err := r.items.Find(ctx, bson.M{"clientProgramId": bson.M{"$in": clientProgramIDs}}, recentOptions(limit))
	if err != nil {
		return nil, err
	}
	if err = decodeAll(ctx, cursor, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *mongoCompletionRepository) DeleteItemsByTargetKeys(ctx context.Context, targetKeys []string) error {
	if len(targetKeys) == 0 {
		return nil
	}
	_, err := r.items.DeleteMany(ctx, bson.M{"targetKey": bson.M{"$in": targetKeys}})
	return err
}

func (r *mongoCompletionRepository) DeleteByClientProgramIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	filter := bson.M{"clientProgramId": bson.M{"$in": ids}}
	if _, err := r.days.DeleteMany(ctx, filter); err != nil {
		return err
	}
	_, err := r.items.DeleteMany(ctx, filter)
	return err
}

func recentOptions(limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

// EnsureCompletionIndexes creates the unique keys both upserts depend on.
func EnsureCompletionIndexes(ctx context.Context, days, items *mongo.Collection) {
	createIndexes(ctx, days, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientProgramId", Value: 1}, {Key: "programDayId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "clientProgramId", Value: 1}, {Key: "completedAt", Value: -1}},
			Options: options.Index(),
		},
	})
	createIndexes(ctx, items, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientProgramId", Value: 1}, {Key: "targetKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "clientProgramId", Value: 1}, {Key: "completedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "targetKey", Value: 1}},
			Options: options.Index(),
		},
	})
}
