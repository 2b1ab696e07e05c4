package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelstream/internal/domain"
)

// MovieRepository stores movie records keyed by the unique mid.
//
// MergeQualities controls the quality-append behavior on repeated upserts:
// false keeps the historical append-without-dedup behavior, true merges
// variants by type instead.
type MovieRepository struct {
	collection     *mongo.Collection
	MergeQualities bool
}

type movieDoc struct {
	MID           int          `bson:"mid"`
	Title         string       `bson:"title"`
	OriginalTitle string       `bson:"original_title,omitempty"`
	ReleaseDate   string       `bson:"release_date,omitempty"`
	Overview      string       `bson:"overview,omitempty"`
	Poster        string       `bson:"poster,omitempty"`
	Backdrop      string       `bson:"backdrop,omitempty"`
	Runtime       int          `bson:"runtime,omitempty"`
	Popularity    float64      `bson:"popularity,omitempty"`
	VoteAverage   float64      `bson:"vote_average,omitempty"`
	VoteCount     int          `bson:"vote_count,omitempty"`
	Genres        []string     `bson:"genres,omitempty"`
	Cast          []castDoc    `bson:"cast,omitempty"`
	Directors     []string     `bson:"directors,omitempty"`
	Studios       []string     `bson:"studios,omitempty"`
	Links         []string     `bson:"links,omitempty"`
	Logo          string       `bson:"logo,omitempty"`
	Trailer       string       `bson:"trailer,omitempty"`
	Qualities     []qualityDoc `bson:"quality"`
}

type movieCardDoc struct {
	MID         int     `bson:"mid"`
	Title       string  `bson:"title"`
	ReleaseDate string  `bson:"release_date"`
	Poster      string  `bson:"poster"`
	VoteAverage float64 `bson:"vote_average"`
	VoteCount   int     `bson:"vote_count"`
	Score       float64 `bson:"score"`
}

func NewMovieRepository(client *mongo.Client, dbName string, mergeQualities bool) *MovieRepository {
	return &MovieRepository{
		collection:     client.Database(dbName).Collection(moviesCollection),
		MergeQualities: mergeQualities,
	}
}

func (r *MovieRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "mid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "vote_average", Value: -1}}},
		{Keys: bson.D{{Key: "release_date", Value: -1}}},
		{Keys: bson.D{{Key: "popularity", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *MovieRepository) Upsert(ctx context.Context, rec domain.MovieRecord) error {
	if rec.MID == 0 {
		return fmt.Errorf("upsert movie: mid is required")
	}

	existing, err := r.Get(ctx, rec.MID)
	if errors.Is(err, domain.ErrNotFound) {
		_, err := r.collection.InsertOne(ctx, toMovieDoc(rec))
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	if err != nil {
		return err
	}

	qualities := combineQualities(existing.Qualities, rec.Qualities, r.MergeQualities)
	update := movieScalarUpdate(rec)
	update["quality"] = toQualityDocs(qualities)

	_, err = r.collection.UpdateOne(ctx, bson.M{"mid": rec.MID}, bson.M{"$set": update})
	return err
}

// movieScalarUpdate is the fixed allowlist of fields overwritten on
// repeated upserts.
func movieScalarUpdate(rec domain.MovieRecord) bson.M {
	return bson.M{
		"title":          rec.Title,
		"original_title": rec.OriginalTitle,
		"release_date":   rec.ReleaseDate,
		"overview":       rec.Overview,
		"poster":         rec.Poster,
		"backdrop":       rec.Backdrop,
		"runtime":        rec.Runtime,
		"popularity":     rec.Popularity,
		"vote_average":   rec.VoteAverage,
		"vote_count":     rec.VoteCount,
		"genres":         rec.Genres,
		"cast":           toCastDocs(rec.Cast),
		"directors":      rec.Directors,
		"studios":        rec.Studios,
		"links":          rec.Links,
		"logo":           rec.Logo,
		"trailer":        rec.Trailer,
	}
}

// combineQualities appends incoming variants to the existing list. With
// merge enabled, variants replace existing entries of the same type
// instead of accumulating duplicates.
func combineQualities(existing, incoming []domain.QualityVariant, merge bool) []domain.QualityVariant {
	if !merge {
		return append(append([]domain.QualityVariant{}, existing...), incoming...)
	}
	out := append([]domain.QualityVariant{}, existing...)
	for _, q := range incoming {
		replaced := false
		for i := range out {
			if out[i].Type == q.Type {
				out[i] = q
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, q)
		}
	}
	return out
}

func (r *MovieRepository) Get(ctx context.Context, mid int) (domain.MovieRecord, error) {
	var doc movieDoc
	if err := r.collection.FindOne(ctx, bson.M{"mid": mid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.MovieRecord{}, domain.ErrNotFound
		}
		return domain.MovieRecord{}, err
	}
	return fromMovieDoc(doc), nil
}

func (r *MovieRepository) Update(ctx context.Context, mid int, fields map[string]any) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"mid": mid}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MovieRepository) Delete(ctx context.Context, mid int) (int64, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"mid": mid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MovieRepository) Latest(ctx context.Context, limit int64) ([]domain.MovieRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []movieDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]domain.MovieRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromMovieDoc(doc))
	}
	return records, nil
}

func (r *MovieRepository) Paginated(ctx context.Context, page domain.PageRequest) ([]domain.MediaCard, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(paginatedSort(page.Sort, "release_date")).
		SetSkip(page.Skip).
		SetLimit(page.Limit).
		SetProjection(cardProjection("mid", "release_date"))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	cards, err := decodeMovieCards(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func (r *MovieRepository) Search(ctx context.Context, query string, limit int64) ([]domain.MediaCard, error) {
	cursor, err := r.collection.Aggregate(ctx, fuzzySearchPipeline(query, limit, "mid", "release_date"))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeMovieCards(ctx, cursor)
}

func (r *MovieRepository) SearchSubstring(ctx context.Context, query string, limit int64) ([]domain.MediaCard, error) {
	filter := bson.M{"title": bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}}
	opts := options.Find().
		SetLimit(limit).
		SetProjection(cardProjection("mid", "release_date"))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeMovieCards(ctx, cursor)
}

func (r *MovieRepository) Similar(ctx context.Context, genres []string, limit int64) ([]domain.MediaCard, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "popularity", Value: -1}}).
		SetLimit(limit).
		SetProjection(cardProjection("mid", "release_date"))
	cursor, err := r.collection.Find(ctx, genreFilter(genres), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeMovieCards(ctx, cursor)
}

func (r *MovieRepository) GetMany(ctx context.Context, mids []int) ([]domain.MediaCard, error) {
	if len(mids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetProjection(cardProjection("mid", "release_date"))
	cursor, err := r.collection.Find(ctx, bson.M{"mid": bson.M{"$in": mids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeMovieCards(ctx, cursor)
}

func decodeMovieCards(ctx context.Context, cursor *mongo.Cursor) ([]domain.MediaCard, error) {
	var docs []movieCardDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	cards := make([]domain.MediaCard, 0, len(docs))
	for _, doc := range docs {
		cards = append(cards, domain.MediaCard{
			ID:          doc.MID,
			Title:       doc.Title,
			Year:        yearFromDate(doc.ReleaseDate),
			Poster:      doc.Poster,
			VoteAverage: doc.VoteAverage,
			VoteCount:   doc.VoteCount,
			MediaType:   domain.MediaMovie,
			Score:       doc.Score,
		})
	}
	return cards, nil
}

func toMovieDoc(rec domain.MovieRecord) movieDoc {
	return movieDoc{
		MID:           rec.MID,
		Title:         rec.Title,
		OriginalTitle: rec.OriginalTitle,
		ReleaseDate:   rec.ReleaseDate,
		Overview:      rec.Overview,
		Poster:        rec.Poster,
		Backdrop:      rec.Backdrop,
		Runtime:       rec.Runtime,
		Popularity:    rec.Popularity,
		VoteAverage:   rec.VoteAverage,
		VoteCount:     rec.VoteCount,
		Genres:        rec.Genres,
		Cast:          toCastDocs(rec.Cast),
		Directors:     rec.Directors,
		Studios:       rec.Studios,
		Links:         rec.Links,
		Logo:          rec.Logo,
		Trailer:       rec.Trailer,
		Qualities:     toQualityDocs(rec.Qualities),
	}
}

func fromMovieDoc(doc movieDoc) domain.MovieRecord {
	return domain.MovieRecord{
		MID:           doc.MID,
		Title:         doc.Title,
		OriginalTitle: doc.OriginalTitle,
		ReleaseDate:   doc.ReleaseDate,
		Overview:      doc.Overview,
		Poster:        doc.Poster,
		Backdrop:      doc.Backdrop,
		Runtime:       doc.Runtime,
		Popularity:    doc.Popularity,
		VoteAverage:   doc.VoteAverage,
		VoteCount:     doc.VoteCount,
		Genres:        doc.Genres,
		Cast:          fromCastDocs(doc.Cast),
		Directors:     doc.Directors,
		Studios:       doc.Studios,
		Links:         doc.Links,
		Logo:          doc.Logo,
		Trailer:       doc.Trailer,
		Qualities:     fromQualityDocs(doc.Qualities),
	}
}
