package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/templui/recipehub/internal/db"
	"github.com/templui/recipehub/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(database *mongo.Database) UserRepository {
	return &mongoUserRepository{users: database.Collection(db.UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	doc := *user
	doc.Email = strings.ToLower(doc.Email)
	if doc.Favorites == nil {
		// $addToSet needs an array to work on
		doc.Favorites = []string{}
	}

	_, err := r.users.InsertOne(ctx, doc)
	return mongoDuplicate(err)
}

func (r *mongoUserRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *mongoUserRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	user := &model.User{}

	err := r.users.FindOne(ctx, filter).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Update writes every credential field. Nil pointers are stored as null so a
// cleared verification code does not survive the update.
func (r *mongoUserRepository) Update(ctx context.Context, user *model.User) error {
	update := bson.M{"$set": bson.M{
		"email":                   strings.ToLower(user.Email),
		"username":                user.Username,
		"passwordHash":            user.PasswordHash,
		"isVerified":              user.IsVerified,
		"verificationCode":        user.VerificationCode,
		"verificationCodeExpires": user.VerificationCodeExpires,
		"googleId":                user.GoogleID,
		"updatedAt":               user.UpdatedAt,
	}}

	result, err := r.users.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return mongoDuplicate(err)
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *mongoUserRepository) AddFavorite(ctx context.Context, userID, recipeID string) error {
	result, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"favorites": recipeID}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *mongoUserRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"favorites": recipeID}},
	)
	return err
}

func (r *mongoUserRepository) Favorites(ctx context.Context, userID string) ([]string, error) {
	var doc struct {
		Favorites []string `bson:"favorites"`
	}

	opts := options.FindOne().SetProjection(bson.M{"favorites": 1})
	err := r.users.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if doc.Favorites == nil {
		return []string{}, nil
	}
	return doc.Favorites, nil
}

// usernames resolves user IDs to usernames in one query.
func usernames(ctx context.Context, users *mongo.Collection, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	opts := options.Find().SetProjection(bson.M{"username": 1})
	cursor, err := users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	for cursor.Next(ctx) {
		var doc struct {
			ID       string `bson:"_id"`
			Username string `bson:"username"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		names[doc.ID] = doc.Username
	}

	return names, cursor.Err()
}

func mongoDuplicate(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "email"):
		return ErrDuplicateEmail
	case strings.Contains(errStr, "username"):
		return ErrDuplicateUsername
	}
	return err
}
