package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelstream/internal/domain"
)

// ShowRepository stores show records keyed by the unique sid. Repeated
// upserts merge by season number, then episode number; within an episode
// qualities are keyed by type and replaced on collision.
type ShowRepository struct {
	collection *mongo.Collection
}

type episodeDoc struct {
	EpisodeNumber int          `bson:"episode_number"`
	Name          string       `bson:"name,omitempty"`
	Overview      string       `bson:"overview,omitempty"`
	StillPath     string       `bson:"still_path,omitempty"`
	AirDate       string       `bson:"air_date,omitempty"`
	Qualities     []qualityDoc `bson:"quality"`
}

type seasonDoc struct {
	SeasonNumber int          `bson:"season_number"`
	Episodes     []episodeDoc `bson:"episodes"`
}

type showDoc struct {
	SID           int          `bson:"sid"`
	Title         string       `bson:"title"`
	OriginalTitle string       `bson:"original_title,omitempty"`
	FirstAirDate  string       `bson:"first_air_date,omitempty"`
	Overview      string       `bson:"overview,omitempty"`
	Poster        string       `bson:"poster,omitempty"`
	Backdrop      string       `bson:"backdrop,omitempty"`
	Popularity    float64      `bson:"popularity,omitempty"`
	VoteAverage   float64      `bson:"vote_average,omitempty"`
	VoteCount     int          `bson:"vote_count,omitempty"`
	Genres        []string     `bson:"genres,omitempty"`
	Cast          []castDoc    `bson:"cast,omitempty"`
	Studios       []string     `bson:"studios,omitempty"`
	Links         []string     `bson:"links,omitempty"`
	Logo          string       `bson:"logo,omitempty"`
	Trailer       string       `bson:"trailer,omitempty"`
	Seasons       []seasonDoc  `bson:"seasons"`
	TotalSeasons  int          `bson:"total_seasons,omitempty"`
	TotalEpisodes int          `bson:"total_episodes,omitempty"`
	Status        string       `bson:"status,omitempty"`
}

type showCardDoc struct {
	SID          int     `bson:"sid"`
	Title        string  `bson:"title"`
	FirstAirDate string  `bson:"first_air_date"`
	Poster       string  `bson:"poster"`
	VoteAverage  float64 `bson:"vote_average"`
	VoteCount    int     `bson:"vote_count"`
	Score        float64 `bson:"score"`
}

func NewShowRepository(client *mongo.Client, dbName string) *ShowRepository {
	return &ShowRepository{collection: client.Database(dbName).Collection(showsCollection)}
}

func (r *ShowRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "vote_average", Value: -1}}},
		{Keys: bson.D{{Key: "first_air_date", Value: -1}}},
		{Keys: bson.D{{Key: "popularity", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *ShowRepository) Upsert(ctx context.Context, rec domain.ShowRecord) error {
	if rec.SID == 0 {
		return fmt.Errorf("upsert show: sid is required")
	}

	existing, err := r.Get(ctx, rec.SID)
	if errors.Is(err, domain.ErrNotFound) {
		_, err := r.collection.InsertOne(ctx, toShowDoc(rec))
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	if err != nil {
		return err
	}

	merged := MergeShow(existing, rec)
	_, err = r.collection.ReplaceOne(ctx, bson.M{"sid": rec.SID}, toShowDoc(merged))
	return err
}

// MergeShow folds an incoming record into the stored one: scalars are
// overwritten, seasons merge by number, episodes merge by number, and
// episode qualities merge by type with replace-on-collision. Unknown
// seasons and episodes are appended.
func MergeShow(existing, incoming domain.ShowRecord) domain.ShowRecord {
	out := incoming
	out.Seasons = mergeSeasons(existing.Seasons, incoming.Seasons)

	totalEpisodes := 0
	for _, s := range out.Seasons {
		totalEpisodes += len(s.Episodes)
	}
	if len(out.Seasons) > out.TotalSeasons {
		out.TotalSeasons = len(out.Seasons)
	}
	if totalEpisodes > out.TotalEpisodes {
		out.TotalEpisodes = totalEpisodes
	}
	return out
}

func mergeSeasons(existing, incoming []domain.Season) []domain.Season {
	out := make([]domain.Season, len(existing))
	copy(out, existing)

	for _, in := range incoming {
		found := false
		for i := range out {
			if out[i].SeasonNumber == in.SeasonNumber {
				out[i].Episodes = mergeEpisodes(out[i].Episodes, in.Episodes)
				found = true
				break
			}
		}
		if !found {
			out = append(out, in)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SeasonNumber < out[j].SeasonNumber })
	return out
}

func mergeEpisodes(existing, incoming []domain.Episode) []domain.Episode {
	out := make([]domain.Episode, len(existing))
	copy(out, existing)

	for _, in := range incoming {
		found := false
		for i := range out {
			if out[i].EpisodeNumber == in.EpisodeNumber {
				merged := in
				merged.Qualities = mergeQualitiesByType(out[i].Qualities, in.Qualities)
				out[i] = merged
				found = true
				break
			}
		}
		if !found {
			out = append(out, in)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EpisodeNumber < out[j].EpisodeNumber })
	return out
}

func mergeQualitiesByType(existing, incoming []domain.QualityVariant) []domain.QualityVariant {
	out := make([]domain.QualityVariant, len(existing))
	copy(out, existing)

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

func (r *ShowRepository) Get(ctx context.Context, sid int) (domain.ShowRecord, error) {
	var doc showDoc
	if err := r.collection.FindOne(ctx, bson.M{"sid": sid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ShowRecord{}, domain.ErrNotFound
		}
		return domain.ShowRecord{}, err
	}
	return fromShowDoc(doc), nil
}

func (r *ShowRepository) Update(ctx context.Context, sid int, fields map[string]any) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"sid": sid}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ShowRepository) Delete(ctx context.Context, sid int) (int64, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"sid": sid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *ShowRepository) Latest(ctx context.Context, limit int64) ([]domain.ShowRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []showDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]domain.ShowRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromShowDoc(doc))
	}
	return records, nil
}

func (r *ShowRepository) Paginated(ctx context.Context, page domain.PageRequest) ([]domain.MediaCard, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(paginatedSort(page.Sort, "first_air_date")).
		SetSkip(page.Skip).
		SetLimit(page.Limit).
		SetProjection(cardProjection("sid", "first_air_date"))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	cards, err := decodeShowCards(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func (r *ShowRepository) Search(ctx context.Context, query string, limit int64) ([]domain.MediaCard, error) {
	cursor, err := r.collection.Aggregate(ctx, fuzzySearchPipeline(query, limit, "sid", "first_air_date"))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeShowCards(ctx, cursor)
}

func (r *ShowRepository) SearchSubstring(ctx context.Context, query string, limit int64) ([]domain.MediaCard, error) {
	filter := bson.M{"title": bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}}
	opts := options.Find().
		SetLimit(limit).
		SetProjection(cardProjection("sid", "first_air_date"))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeShowCards(ctx, cursor)
}

func (r *ShowRepository) Similar(ctx context.Context, genres []string, limit int64) ([]domain.MediaCard, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "popularity", Value: -1}}).
		SetLimit(limit).
		SetProjection(cardProjection("sid", "first_air_date"))
	cursor, err := r.collection.Find(ctx, genreFilter(genres), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeShowCards(ctx, cursor)
}

func (r *ShowRepository) GetMany(ctx context.Context, sids []int) ([]domain.MediaCard, error) {
	if len(sids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetProjection(cardProjection("sid", "first_air_date"))
	cursor, err := r.collection.Find(ctx, bson.M{"sid": bson.M{"$in": sids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeShowCards(ctx, cursor)
}

func decodeShowCards(ctx context.Context, cursor *mongo.Cursor) ([]domain.MediaCard, error) {
	var docs []showCardDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	cards := make([]domain.MediaCard, 0, len(docs))
	for _, doc := range docs {
		cards = append(cards, domain.MediaCard{
			ID:          doc.SID,
			Title:       doc.Title,
			Year:        yearFromDate(doc.FirstAirDate),
			Poster:      doc.Poster,
			VoteAverage: doc.VoteAverage,
			VoteCount:   doc.VoteCount,
			MediaType:   domain.MediaShow,
			Score:       doc.Score,
		})
	}
	return cards, nil
}

func toShowDoc(rec domain.ShowRecord) showDoc {
	seasons := make([]seasonDoc, 0, len(rec.Seasons))
	for _, s := range rec.Seasons {
		episodes := make([]episodeDoc, 0, len(s.Episodes))
		for _, e := range s.Episodes {
			episodes = append(episodes, episodeDoc{
				EpisodeNumber: e.EpisodeNumber,
				Name:          e.Name,
				Overview:      e.Overview,
				StillPath:     e.StillPath,
				AirDate:       e.AirDate,
				Qualities:     toQualityDocs(e.Qualities),
			})
		}
		seasons = append(seasons, seasonDoc{SeasonNumber: s.SeasonNumber, Episodes: episodes})
	}

	return showDoc{
		SID:           rec.SID,
		Title:         rec.Title,
		OriginalTitle: rec.OriginalTitle,
		FirstAirDate:  rec.FirstAirDate,
		Overview:      rec.Overview,
		Poster:        rec.Poster,
		Backdrop:      rec.Backdrop,
		Popularity:    rec.Popularity,
		VoteAverage:   rec.VoteAverage,
		VoteCount:     rec.VoteCount,
		Genres:        rec.Genres,
		Cast:          toCastDocs(rec.Cast),
		Studios:       rec.Studios,
		Links:         rec.Links,
		Logo:          rec.Logo,
		Trailer:       rec.Trailer,
		Seasons:       seasons,
		TotalSeasons:  rec.TotalSeasons,
		TotalEpisodes: rec.TotalEpisodes,
		Status:        rec.Status,
	}
}

func fromShowDoc(doc showDoc) domain.ShowRecord {
	seasons := make([]domain.Season, 0, len(doc.Seasons))
	for _, s := range doc.Seasons {
		episodes := make([]domain.Episode, 0, len(s.Episodes))
		for _, e := range s.Episodes {
			episodes = append(episodes, domain.Episode{
				EpisodeNumber: e.EpisodeNumber,
				Name:          e.Name,
				Overview:      e.Overview,
				StillPath:     e.StillPath,
				AirDate:       e.AirDate,
				Qualities:     fromQualityDocs(e.Qualities),
			})
		}
		seasons = append(seasons, domain.Season{SeasonNumber: s.SeasonNumber, Episodes: episodes})
	}

	return domain.ShowRecord{
		SID:           doc.SID,
		Title:         doc.Title,
		OriginalTitle: doc.OriginalTitle,
		FirstAirDate:  doc.FirstAirDate,
		Overview:      doc.Overview,
		Poster:        doc.Poster,
		Backdrop:      doc.Backdrop,
		Popularity:    doc.Popularity,
		VoteAverage:   doc.VoteAverage,
		VoteCount:     doc.VoteCount,
		Genres:        doc.Genres,
		Cast:          fromCastDocs(doc.Cast),
		Studios:       doc.Studios,
		Links:         doc.Links,
		Logo:          doc.Logo,
		Trailer:       doc.Trailer,
		Seasons:       seasons,
		TotalSeasons:  doc.TotalSeasons,
		TotalEpisodes: doc.TotalEpisodes,
		Status:        doc.Status,
	}
}
