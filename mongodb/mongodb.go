// Package mongodb is the document-store adapter behind the db interfaces.
// BSON mapping and ObjectId handling stay inside this package; ids cross
// the boundary as opaque hex strings.
package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mzurek/taskpilot/db"
)

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// NewStore wires the document repositories into a db.Store that
// disconnects the client on Close.
func NewStore(client *mongo.Client, database string) *db.Store {
	d := client.Database(database)
	closer := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Disconnect(ctx)
	}
	return db.NewStore(
		NewUserRepository(d),
		NewTaskRepository(d),
		NewCredentialRepository(d),
		closer,
	)
}

// EnsureIndexes creates the unique and lookup indexes the repositories
// rely on. Safe to call on every startup.
func EnsureIndexes(ctx context.Context, client *mongo.Client, database string) error {
	d := client.Database(database)

	_, err := d.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = d.Collection("tasks").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = d.Collection("calendar_credentials").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
