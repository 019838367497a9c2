package repository

import (
	"context"
	"testing"
	"time"

	"github.com/codehive/chat/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// A valid ObjectID hex that matches nothing
const nonExistentID = "000000000000000000000000"

// setupTestDB connects to a local test database
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Skipf("Skipping test, could not connect to test database: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("Skipping test, could not reach test database: %v", err)
	}

	db := client.Database("chat_test")
	if err := database.EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}

	cleanupTestDB(t, db)
	t.Cleanup(func() {
		cleanupTestDB(t, db)
		closeTestDB(t, db)
	})

	return db
}

func cleanupTestDB(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx := context.Background()
	for _, coll := range []string{"users", "rooms", "messages"} {
		if _, err := db.Collection(coll).DeleteMany(ctx, bson.M{}); err != nil {
			t.Logf("Failed to clean collection %s: %v", coll, err)
		}
	}
}

func closeTestDB(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.Client().Disconnect(ctx); err != nil {
		t.Logf("Failed to disconnect: %v", err)
	}
}
