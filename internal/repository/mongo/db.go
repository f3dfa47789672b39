package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names.
const (
	userCollectionName          = "users"
	programCollectionName       = "programs"
	programDayCollectionName    = "program_days"
	programItemCollectionName   = "program_items"
	clientProgramCollectionName = "client_programs"
	overrideCollectionName      = "program_item_overrides"
	dayCompletionCollectionName = "day_completions"
	itemCompletionCollection    = "item_completions"
)

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary: Connect succeeds lazily even when the server is down.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Uniqueness of
// completions and of the single active assignment per client depends on them.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	EnsureUserIndexes(ctx, db.Collection(userCollectionName))
	EnsureProgramIndexes(ctx, db.Collection(programCollectionName))
	EnsureProgramDayIndexes(ctx, db.Collection(programDayCollectionName))
	EnsureProgramItemIndexes(ctx, db.Collection(programItemCollectionName))
	EnsureClientProgramIndexes(ctx, db.Collection(clientProgramCollectionName))
	EnsureOverrideIndexes(ctx, db.Collection(overrideCollectionName))
	EnsureCompletionIndexes(ctx, db.Collection(dayCompletionCollectionName), db.Collection(itemCompletionCollection))
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

// decodeAll drains a cursor into out, always closing it.
func decodeAll(ctx context.Context, cursor *mongo.Cursor, out interface{}) error {
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return err
	}
	return cursor.Err()
}

func findOne(ctx context.Context, collection *mongo.Collection, filter bson.M, out interface{}) error {
	err := collection.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errNotFound
	}
	return err
}
