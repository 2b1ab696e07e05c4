package mongo

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelstream/internal/domain"
)

type UserRepository struct {
	collection *mongo.Collection
}

type userDoc struct {
	UserID           int64  `bson:"user_id"`
	Username         string `bson:"username,omitempty"`
	FirstName        string `bson:"first_name,omitempty"`
	LastName         string `bson:"last_name,omitempty"`
	RegistrationDate int64  `bson:"registration_date"`
	StreamLimitDays  int    `bson:"slimit"`
	IsActive         bool   `bson:"is_active"`
}

func NewUserRepository(client *mongo.Client, dbName string) *UserRepository {
	return &UserRepository{collection: client.Database(dbName).Collection(usersCollection)}
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *UserRepository) Register(ctx context.Context, user domain.UserRecord) error {
	if user.StreamLimitDays == 0 {
		user.StreamLimitDays = 30
	}
	if user.RegistrationDate.IsZero() {
		user.RegistrationDate = time.Now().UTC()
	}
	user.IsActive = true

	_, err := r.collection.InsertOne(ctx, toUserDoc(user))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *UserRepository) Get(ctx context.Context, userID int64) (domain.UserRecord, error) {
	var doc userDoc
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.UserRecord{}, domain.ErrNotFound
		}
		return domain.UserRecord{}, err
	}
	return fromUserDoc(doc), nil
}

func (r *UserRepository) List(ctx context.Context, skip, limit int64) ([]domain.UserRecord, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "registration_date", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	users, err := decodeUsers(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Search matches numeric queries against user_id and everything else
// against username and name fields, case-insensitively.
func (r *UserRepository) Search(ctx context.Context, query string, limit int64) ([]domain.UserRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var filter bson.M
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		filter = bson.M{"user_id": id}
	} else {
		pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
		filter = bson.M{"$or": []bson.M{
			{"username": pattern},
			{"first_name": pattern},
			{"last_name": pattern},
		}}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeUsers(ctx, cursor)
}

func (r *UserRepository) Update(ctx context.Context, userID int64, fields map[string]any) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, userID int64) (int64, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func decodeUsers(ctx context.Context, cursor *mongo.Cursor) ([]domain.UserRecord, error) {
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]domain.UserRecord, 0, len(docs))
	for _, doc := range docs {
		users = append(users, fromUserDoc(doc))
	}
	return users, nil
}

func toUserDoc(u domain.UserRecord) userDoc {
	return userDoc{
		UserID:           u.UserID,
		Username:         u.Username,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		RegistrationDate: u.RegistrationDate.Unix(),
		StreamLimitDays:  u.StreamLimitDays,
		IsActive:         u.IsActive,
	}
}

func fromUserDoc(doc userDoc) domain.UserRecord {
	return domain.UserRecord{
		UserID:           doc.UserID,
		Username:         doc.Username,
		FirstName:        doc.FirstName,
		LastName:         doc.LastName,
		RegistrationDate: time.Unix(doc.RegistrationDate, 0).UTC(),
		StreamLimitDays:  doc.StreamLimitDays,
		IsActive:         doc.IsActive,
	}
}
