package mongo

import (
	"context"
	"regexp"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelstream/internal/domain"
)

const (
	moviesCollection  = "movies"
	showsCollection   = "shows"
	usersCollection   = "users"
	configsCollection = "configs"
)

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type qualityDoc struct {
	Type       string `bson:"type"`
	Size       int64  `bson:"size"`
	Audio      string `bson:"audio"`
	VideoCodec string `bson:"video_codec"`
	FileType   string `bson:"file_type"`
	Subtitle   string `bson:"subtitle"`
	FileHash   string `bson:"file_hash"`
	MsgID      int    `bson:"msg_id"`
	ChatID     int64  `bson:"chat_id"`
	Runtime    int    `bson:"runtime,omitempty"`
}

type castDoc struct {
	Name      string `bson:"name"`
	Character string `bson:"character"`
	Profile   string `bson:"profile,omitempty"`
}

func toQualityDocs(qs []domain.QualityVariant) []qualityDoc {
	docs := make([]qualityDoc, 0, len(qs))
	for _, q := range qs {
		docs = append(docs, qualityDoc(q))
	}
	return docs
}

func fromQualityDocs(docs []qualityDoc) []domain.QualityVariant {
	qs := make([]domain.QualityVariant, 0, len(docs))
	for _, d := range docs {
		qs = append(qs, domain.QualityVariant(d))
	}
	return qs
}

func toCastDocs(cs []domain.CastMember) []castDoc {
	docs := make([]castDoc, 0, len(cs))
	for _, c := range cs {
		docs = append(docs, castDoc(c))
	}
	return docs
}

func fromCastDocs(docs []castDoc) []domain.CastMember {
	cs := make([]domain.CastMember, 0, len(docs))
	for _, d := range docs {
		cs = append(cs, domain.CastMember(d))
	}
	return cs
}

// yearFromDate extracts the leading 4-digit year of a YYYY-MM-DD date.
func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// paginatedSort maps the public sort names to mongo sort documents.
// Unknown values fall back to "new".
func paginatedSort(sort, dateField string) bson.D {
	switch sort {
	case "most":
		return bson.D{{Key: "vote_average", Value: -1}}
	case "date":
		return bson.D{{Key: dateField, Value: -1}}
	default: // "new"
		return bson.D{{Key: "_id", Value: -1}}
	}
}

// fuzzySearchPipeline builds an Atlas Search aggregation over the title
// field with relevance score projection.
func fuzzySearchPipeline(query string, limit int64, idField, dateField string) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$search", Value: bson.D{
			{Key: "index", Value: "default"},
			{Key: "text", Value: bson.D{
				{Key: "query", Value: query},
				{Key: "path", Value: "title"},
				{Key: "fuzzy", Value: bson.D{{Key: "maxEdits", Value: 2}}},
			}},
		}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: idField, Value: 1},
			{Key: "title", Value: 1},
			{Key: dateField, Value: 1},
			{Key: "poster", Value: 1},
			{Key: "vote_average", Value: 1},
			{Key: "vote_count", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "searchScore"}}},
		}}},
	}
}

// genreFilter matches records carrying any of the given genres,
// case-insensitively.
func genreFilter(genres []string) bson.M {
	clauses := make([]bson.M, 0, len(genres))
	for _, g := range genres {
		clauses = append(clauses, bson.M{"genres": bson.M{
			"$elemMatch": bson.M{"$regex": regexp.QuoteMeta(g), "$options": "i"},
		}})
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return bson.M{"$or": clauses}
}

func cardProjection(idField, dateField string) bson.D {
	return bson.D{
		{Key: idField, Value: 1},
		{Key: "title", Value: 1},
		{Key: dateField, Value: 1},
		{Key: "poster", Value: 1},
		{Key: "vote_average", Value: 1},
		{Key: "vote_count", Value: 1},
	}
}
