package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pnodepulse/config"
	"pnodepulse/models"
)

// MongoStore persists the four logical tables behind the caches: pod_storage
// (address PK), node_stats (address PK), geo_location (ip PK) and the
// append-only snapshot series. When MongoDB is disabled every method is a
// no-op so the in-memory caches carry the process alone.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	enabled bool
}

const (
	CollectionPodStorage  = "pod_storage"
	CollectionNodeStats   = "node_stats"
	CollectionGeoLocation = "geo_location"
	CollectionSnapshots   = "snapshots"
	CollectionWatchlist   = "watchlist"
)

func NewMongoStore(cfg *config.Config) (*MongoStore, error) {
	if !cfg.MongoDB.Enabled {
		log.Println("MongoDB is disabled in configuration")
		return &MongoStore{enabled: false}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoDB.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoStore{
		client:  client,
		db:      client.Database(cfg.MongoDB.Database),
		enabled: true,
	}

	if err := store.createIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create indexes: %v", err)
	}

	log.Printf("MongoDB connected successfully to database: %s", cfg.MongoDB.Database)
	return store, nil
}

func (m *MongoStore) createIndexes(ctx context.Context) error {
	if !m.enabled {
		return nil
	}

	_, err := m.db.Collection(CollectionPodStorage).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "address", Value: 1}},
		Options: options.Index().SetName("address").SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(CollectionNodeStats).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "address", Value: 1}},
		Options: options.Index().SetName("address").SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(CollectionGeoLocation).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ip", Value: 1}},
		Options: options.Index().SetName("ip").SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(CollectionSnapshots).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("timestamp_desc"),
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(CollectionWatchlist).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ip", Value: 1}},
		Options: options.Index().SetName("ip").SetUnique(true),
	})
	return err
}

func (m *MongoStore) Close() error {
	if !m.enabled || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoStore) Enabled() bool {
	return m != nil && m.enabled
}

// Pod storage

func (m *MongoStore) UpsertStorageEntry(ctx context.Context, entry *models.StorageEntry) error {
	if !m.Enabled() {
		return nil
	}
	filter := bson.M{"address": entry.Address}
	update := bson.M{"$set": entry}
	opts := options.Update().SetUpsert(true)

	_, err := m.db.Collection(CollectionPodStorage).UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoStore) LoadStorageEntries(ctx context.Context) ([]models.StorageEntry, error) {
	if !m.Enabled() {
		return nil, nil
	}
	cursor, err := m.db.Collection(CollectionPodStorage).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.StorageEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Node stats

func (m *MongoStore) UpsertNodeStats(ctx context.Context, entry *models.NodeStatsEntry) error {
	if !m.Enabled() {
		return nil
	}
	filter := bson.M{"address": entry.Address}
	update := bson.M{"$set": entry}
	opts := options.Update().SetUpsert(true)

	_, err := m.db.Collection(CollectionNodeStats).UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoStore) LoadNodeStats(ctx context.Context) ([]models.NodeStatsEntry, error) {
	if !m.Enabled() {
		return nil, nil
	}
	cursor, err := m.db.Collection(CollectionNodeStats).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.NodeStatsEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Geo locations (write-once, no expiry)

func (m *MongoStore) LoadGeo(ctx context.Context, ip string) (*models.GeoEntry, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("mongodb not enabled")
	}
	var entry models.GeoEntry
	err := m.db.Collection(CollectionGeoLocation).FindOne(ctx, bson.M{"ip": ip}).Decode(&entry)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (m *MongoStore) SaveGeo(ctx context.Context, entry *models.GeoEntry) error {
	if !m.Enabled() {
		return nil
	}
	filter := bson.M{"ip": entry.IP}
	update := bson.M{"$setOnInsert": entry}
	opts := options.Update().SetUpsert(true)

	_, err := m.db.Collection(CollectionGeoLocation).UpdateOne(ctx, filter, update, opts)
	return err
}

// Watchlist

func (m *MongoStore) SaveWatch(ctx context.Context, entry *models.WatchEntry) error {
	if !m.Enabled() {
		return nil
	}
	filter := bson.M{"ip": entry.IP}
	update := bson.M{"$setOnInsert": entry}
	opts := options.Update().SetUpsert(true)

	_, err := m.db.Collection(CollectionWatchlist).UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoStore) LoadWatchlist(ctx context.Context) ([]models.WatchEntry, error) {
	if !m.Enabled() {
		return nil, nil
	}
	cursor, err := m.db.Collection(CollectionWatchlist).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.WatchEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Snapshots

func (m *MongoStore) InsertSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	if !m.Enabled() {
		return nil
	}
	_, err := m.db.Collection(CollectionSnapshots).InsertOne(ctx, snapshot)
	return err
}

func (m *MongoStore) LoadSnapshotsSince(ctx context.Context, since int64) ([]models.Snapshot, error) {
	if !m.Enabled() {
		return nil, nil
	}
	filter := bson.M{"timestamp": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.M{"timestamp": 1})

	cursor, err := m.db.Collection(CollectionSnapshots).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var snapshots []models.Snapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (m *MongoStore) DeleteSnapshotsBefore(ctx context.Context, cutoff int64) error {
	if !m.Enabled() {
		return nil
	}
	filter := bson.M{"timestamp": bson.M{"$lt": cutoff}}
	result, err := m.db.Collection(CollectionSnapshots).DeleteMany(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount > 0 {
		log.Printf("[MongoStore] Pruned %d snapshots past retention", result.DeletedCount)
	}
	return nil
}
