package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelstream/internal/domain"
)

const trendingKey = "trending"

type ConfigRepository struct {
	collection *mongo.Collection
}

type trendingDoc struct {
	Key   string `bson:"key"`
	Movie []int  `bson:"movie"`
	Show  []int  `bson:"show"`
}

func NewConfigRepository(client *mongo.Client, dbName string) *ConfigRepository {
	return &ConfigRepository{collection: client.Database(dbName).Collection(configsCollection)}
}

func (r *ConfigRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ConfigRepository) GetTrending(ctx context.Context) (domain.TrendingConfig, error) {
	var doc trendingDoc
	if err := r.collection.FindOne(ctx, bson.M{"key": trendingKey}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.TrendingConfig{}, domain.ErrNotFound
		}
		return domain.TrendingConfig{}, err
	}
	return domain.TrendingConfig{Movie: doc.Movie, Show: doc.Show}, nil
}

func (r *ConfigRepository) SaveTrending(ctx context.Context, cfg domain.TrendingConfig) error {
	doc := trendingDoc{Key: trendingKey, Movie: cfg.Movie, Show: cfg.Show}
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"key": trendingKey},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}
