package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/model"
	registrymigrate "github.com/chirino/docsync/internal/registry/migrate"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const collectionName = "entries"

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "mongo",
		Loader: func(ctx context.Context) (registrystore.EntryStore, error) {
			cfg := config.FromContext(ctx)
			opts := options.Client().ApplyURI(cfg.DBURL)
			if cfg.DBMaxOpenConns > 0 {
				opts.SetMaxPoolSize(uint64(cfg.DBMaxOpenConns))
			}
			if cfg.DBMaxIdleConns > 0 {
				opts.SetMinPoolSize(uint64(cfg.DBMaxIdleConns))
			}
			client, err := mongo.Connect(opts)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
			}
			if err := client.Ping(ctx, nil); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
			}
			return &MongoStore{
				client:  client,
				entries: client.Database(databaseName(cfg)).Collection(collectionName),
			}, nil
		},
	})

	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &mongoMigrator{}})
}

// ForceImport is a no-op variable that can be referenced to ensure this package's init() runs.
var ForceImport = 0

func databaseName(cfg *config.Config) string {
	if cfg.MongoDatabase != "" {
		return cfg.MongoDatabase
	}
	return "docsync"
}

type mongoMigrator struct{}

func (m *mongoMigrator) Name() string { return "mongo-schema" }
func (m *mongoMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart || cfg.DatastoreType != "mongo" {
		return nil
	}

	log.Info("Running migration", "name", m.Name())
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.DBURL))
	if err != nil {
		return fmt.Errorf("mongo migration: failed to connect: %w", err)
	}
	defer client.Disconnect(ctx)

	coll := client.Database(databaseName(cfg)).Collection(collectionName)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sort", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo migration: create indexes on %s: %w", collectionName, err)
	}
	log.Info("Mongo schema migration complete")
	return nil
}

// MongoStore implements EntryStore with one document per entry.
type MongoStore struct {
	client  *mongo.Client
	entries *mongo.Collection
}

func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.entries.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

func (s *MongoStore) Upsert(ctx context.Context, entries []model.StoredEntry) error {
	if len(entries) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(entries))
	for i := range entries {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: entries[i].ID}}).
			SetReplacement(entries[i]).
			SetUpsert(true))
	}
	if _, err := s.entries.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("upsert entries: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*model.StoredEntry, error) {
	var entry model.StoredEntry
	err := s.entries.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &registrystore.NotFoundError{Resource: "entry", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &entry, nil
}

func (s *MongoStore) List(ctx context.Context) ([]model.StoredEntry, error) {
	cursor, err := s.entries.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "sort", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	var out []model.StoredEntry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Digests(ctx context.Context) (map[string]string, error) {
	cursor, err := s.entries.Find(ctx, bson.D{},
		options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}, {Key: "digest", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list digests: %w", err)
	}
	var rows []struct {
		ID     string `bson:"_id"`
		Digest string `bson:"digest"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list digests: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Digest
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
