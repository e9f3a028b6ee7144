package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	Client            *mongo.Client
	UserCollection    *mongo.Collection
	EventsCollection  *mongo.Collection
	TicketsCollection *mongo.Collection
)

const databaseName = "gatepass"

// Connect dials MongoDB and binds the package-level collections.
func Connect(uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	Client = client
	database := client.Database(databaseName)
	UserCollection = database.Collection("users")
	EventsCollection = database.Collection("events")
	TicketsCollection = database.Collection("tickets")
	return nil
}

// EnsureIndexes creates the unique and query indexes the handlers rely on.
// The unique ticket_number index is the store-level guarantee that no two
// tickets ever share a number.
func EnsureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collectionsAndIndexes := map[*mongo.Collection][]mongo.IndexModel{
		UserCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userid", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		EventsCollection: {
			{Keys: bson.D{{Key: "eventid", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "organizer", Value: 1}}},
		},
		TicketsCollection: {
			{Keys: bson.D{{Key: "ticketid", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "ticket_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userid", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "eventid", Value: 1}}},
		},
	}

	for collection, indexes := range collectionsAndIndexes {
		if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
			log.Fatalf("Failed to create indexes for collection %s: %v", collection.Name(), err)
		}
		log.Printf("Indexes created for collection %s", collection.Name())
	}
}

// Disconnect tears the client down during graceful shutdown.
func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}
