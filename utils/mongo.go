package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/raushankrgupta/fish-scout/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scrapeRunsCollection = "scrape_runs"

// ConnectMongo opens and pings a MongoDB connection
func ConnectMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := pingMongo(ctx, client); err != nil {
		return nil, err
	}

	log.Info("Connected to MongoDB!")
	return client, nil
}

// pingMongo checks the connection and releases the client when it fails
func pingMongo(ctx context.Context, client *mongo.Client) error {
	if err := client.Ping(ctx, nil); err != nil {
		if derr := client.Disconnect(context.Background()); derr != nil {
			log.WithError(derr).Warn("Error disconnecting from MongoDB")
		}
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

// HistoryStore keeps a record of every scrape run and its analysis
type HistoryStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewHistoryStore connects to uri and uses the scrape_runs collection of database
func NewHistoryStore(uri, database string) (*HistoryStore, error) {
	client, err := ConnectMongo(uri)
	if err != nil {
		return nil, err
	}
	return &HistoryStore{
		client:     client,
		collection: client.Database(database).Collection(scrapeRunsCollection),
	}, nil
}

// RecordStart inserts a run in the running state
func (h *HistoryStore) RecordStart(ctx context.Context, run *models.ScrapeRun) error {
	_, err := h.collection.InsertOne(ctx, run)
	if err != nil {
		return fmt.Errorf("failed to save scrape run: %w", err)
	}
	return nil
}

// RecordFinish stores the outcome of a run
func (h *HistoryStore) RecordFinish(ctx context.Context, runID string, listings []models.Listing, archiveKey string, runErr string) error {
	status := models.RunStatusCompleted
	if runErr != "" {
		status = models.RunStatusFailed
	}
	now := time.Now()

	_, err := h.collection.UpdateOne(ctx, bson.M{"run_id": runID}, bson.M{"$set": bson.M{
		"status":        status,
		"listings":      listings,
		"listing_count": len(listings),
		"archive_key":   archiveKey,
		"error":         runErr,
		"finished_at":   now,
	}})
	if err != nil {
		return fmt.Errorf("failed to update scrape run %s: %w", runID, err)
	}
	return nil
}

// AttachRecommendations stores analyzer output on a run
func (h *HistoryStore) AttachRecommendations(ctx context.Context, runID string, recs []models.Recommendation) error {
	_, err := h.collection.UpdateOne(ctx, bson.M{"run_id": runID}, bson.M{"$set": bson.M{"recommendations": recs}})
	if err != nil {
		return fmt.Errorf("failed to save recommendations for %s: %w", runID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first, without their listings
func (h *HistoryStore) Recent(ctx context.Context, limit int64) ([]models.ScrapeRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{"listings": 0})

	cursor, err := h.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrape runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := []models.ScrapeRun{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode scrape runs: %w", err)
	}
	return runs, nil
}

// Close disconnects from MongoDB
func (h *HistoryStore) Close(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}
