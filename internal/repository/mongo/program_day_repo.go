package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProgramDayRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramDayRepository creates a new ProgramDay repository.
func NewMongoProgramDayRepository(db *mongo.Database) repository.ProgramDayRepository {
	return &mongoProgramDayRepository{
		collection: db.Collection(programDayCollectionName),
	}
}

// CreateMany inserts days in one batch and fills in their ids.
func (r *mongoProgramDayRepository) CreateMany(ctx context.Context, days []domain.ProgramDay) error {
	if len(days) == 0 {
		return nil
	}
	docs := make([]interface{}, len(days))
	for i := range days {
		days[i].ID = primitive.NewObjectID()
		docs[i] = days[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *mongoProgramDayRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramDay, error) {
	var day domain.ProgramDay
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

func (r *mongoProgramDayRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ProgramDay, error) {
	if len(ids) == 0 {
		return []domain.ProgramDay{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoProgramDayRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramDay, error) {
	return r.find(ctx, bson.M{"programId": programID})
}

func (r *mongoProgramDayRepository) find(ctx context.Context, filter bson.M) ([]domain.ProgramDay, error) {
	days := []domain.ProgramDay{}
	findOptions := options.Find().SetSort(bson.D{{Key: "dayNumber", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	if err = decodeAll(ctx, cursor, &days); err != nil {
		return nil, err
	}
	return days, nil
}

func (r *mongoProgramDayRepository) UpdateLabel(ctx context.Context, id primitive.ObjectID, label string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"label": label}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoProgramDayRepository) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (r *mongoProgramDayRepository) DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"programId": programID})
	return err
}

// EnsureProgramDayIndexes creates necessary indexes. Call during startup.
func EnsureProgramDayIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// One row per (program, day number)
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "dayNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}
