package repository

import (
	"context"

	"github.com/templui/recipehub/internal/db"
	"github.com/templui/recipehub/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoReviewRepository struct {
	reviews *mongo.Collection
	users   *mongo.Collection
}

func NewMongoReviewRepository(database *mongo.Database) ReviewRepository {
	return &mongoReviewRepository{
		reviews: database.Collection(db.ReviewsCollection),
		users:   database.Collection(db.UsersCollection),
	}
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	_, err := r.reviews.InsertOne(ctx, review)
	return err
}

func (r *mongoReviewRepository) ByRecipe(ctx context.Context, recipeID string) ([]*model.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.reviews.Find(ctx, bson.M{"recipeId": recipeID}, opts)
	if err != nil {
		return nil, err
	}

	reviews := []*model.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(reviews))
	for _, review := range reviews {
		ids = append(ids, review.UserID)
	}
	names, err := usernames(ctx, r.users, ids)
	if err != nil {
		return nil, err
	}
	for _, review := range reviews {
		review.Username = names[review.UserID]
	}

	return reviews, nil
}

func (r *mongoReviewRepository) RatingSummary(ctx context.Context, recipeID string) (model.RatingSummary, error) {
	var summary model.RatingSummary

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"recipeId": recipeID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$recipeId",
			"numReviews":    bson.M{"$sum": 1},
			"averageRating": bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := r.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return summary, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	// No group means no reviews: the zero summary is the correct answer
	if cursor.Next(ctx) {
		if err := cursor.Decode(&summary); err != nil {
			return summary, err
		}
	}

	return summary, cursor.Err()
}
