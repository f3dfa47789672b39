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

// mongoClientProgramRepository implements repository.ClientProgramRepository
type mongoClientProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoClientProgramRepository creates a new ClientProgram repository.
func NewMongoClientProgramRepository(db *mongo.Database) repository.ClientProgramRepository {
	return &mongoClientProgramRepository{
		collection: db.Collection(clientProgramCollectionName),
	}
}

// CreateActive deactivates the client's current assignment and inserts the
// new one. The partial unique index on {clientId} where isActive rejects a
// concurrent second activation with ErrDuplicateKey.
func (r *mongoClientProgramRepository) CreateActive(ctx context.Context, cp *domain.ClientProgram) (primitive.ObjectID, error) {
	if cp.ClientID == primitive.NilObjectID || cp.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires clientId and programId")
	}
	now := time.Now().UTC()

	filter := bson.M{"clientId": cp.ClientID, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": now}}
	if _, err := r.collection.UpdateMany(ctx, filter, update); err != nil {
		return primitive.NilObjectID, err
	}

	cp.ID = primitive.NewObjectID()
	cp.IsActive = true
	cp.AssignedAt = now
	cp.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, cp); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}
	return cp.ID, nil
}

// GetByID retrieves a single assignment by its ID.
func (r *mongoClientProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientProgram, error) {
	var cp domain.ClientProgram
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// GetActiveByClientID finds the client's current assignment.
func (r *mongoClientProgramRepository) GetActiveByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientProgram, error) {
	var cp domain.ClientProgram
	findOptions := options.FindOne().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"clientId": clientID, "isActive": true}, findOptions).Decode(&cp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &cp, nil
}

// GetByProgramID lists every assignment of a program, newest first.
func (r *mongoClientProgramRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ClientProgram, error) {
	return r.find(ctx, bson.M{"programId": programID})
}

func (r *mongoClientProgramRepository) GetActiveByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ClientProgram, error) {
	return r.find(ctx, bson.M{"programId": programID, "isActive": true})
}

func (r *mongoClientProgramRepository) find(ctx context.Context, filter bson.M) ([]domain.ClientProgram, error) {
	assignments := []domain.ClientProgram{}
	findOptions := options.Find().SetSort(bson.D{{Key: "assignedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	if err = decodeAll(ctx, cursor, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *mongoClientProgramRepository) CountActiveByProgramID(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"programId": programID, "isActive": true})
}

func (r *mongoClientProgramRepository) HasClientAssignment(ctx context.Context, clientID, programID primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"clientId": clientID, "programId": programID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Deactivate flips isActive off. History is kept.
func (r *mongoClientProgramRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoClientProgramRepository) DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"programId": programID})
	return err
}

// EnsureClientProgramIndexes creates necessary indexes. Call during startup.
func EnsureClientProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// At most one active assignment per client
			Keys: bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": true}).
				SetName("clientId_active_unique"),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
	})
}
