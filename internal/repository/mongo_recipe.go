package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/templui/recipehub/internal/db"
	"github.com/templui/recipehub/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRecipeRepository struct {
	recipes *mongo.Collection
	reviews *mongo.Collection
	users   *mongo.Collection
}

func NewMongoRecipeRepository(database *mongo.Database) RecipeRepository {
	return &mongoRecipeRepository{
		recipes: database.Collection(db.RecipesCollection),
		reviews: database.Collection(db.ReviewsCollection),
		users:   database.Collection(db.UsersCollection),
	}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *mongoRecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	_, err := r.recipes.InsertOne(ctx, recipe)
	return err
}

func (r *mongoRecipeRepository) ByID(ctx context.Context, id string) (*model.Recipe, error) {
	recipe := &model.Recipe{}

	err := r.recipes.FindOne(ctx, bson.M{"_id": id}).Decode(recipe)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.attachAuthors(ctx, []*model.Recipe{recipe}); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (r *mongoRecipeRepository) ByIDs(ctx context.Context, ids []string) ([]*model.Recipe, error) {
	if len(ids) == 0 {
		return []*model.Recipe{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(newestFirst))
}

func (r *mongoRecipeRepository) List(ctx context.Context, filter model.RecipeFilter) ([]*model.Recipe, int, error) {
	query := bson.M{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"ingredients": pattern},
		}
	}

	total, err := r.recipes.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*model.Recipe{}, 0, nil
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	recipes, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}

	return recipes, int(total), nil
}

func (r *mongoRecipeRepository) ByAuthor(ctx context.Context, authorID string) ([]*model.Recipe, error) {
	return r.find(ctx, bson.M{"authorId": authorID}, options.Find().SetSort(newestFirst))
}

func (r *mongoRecipeRepository) AllIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.recipes.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	ids := []string{}
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}

	return ids, cursor.Err()
}

func (r *mongoRecipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	update := bson.M{"$set": bson.M{
		"name":         recipe.Name,
		"description":  recipe.Description,
		"ingredients":  recipe.Ingredients,
		"instructions": recipe.Instructions,
		"imagePath":    recipe.ImagePath,
		"cookingTime":  recipe.CookingTime,
		"updatedAt":    recipe.UpdatedAt,
	}}

	result, err := r.recipes.UpdateOne(ctx, bson.M{"_id": recipe.ID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return ErrRecipeNotFound
	}

	return nil
}

func (r *mongoRecipeRepository) UpdateRating(ctx context.Context, recipeID string, summary model.RatingSummary) error {
	update := bson.M{"$set": bson.M{
		"averageRating": summary.AverageRating,
		"numReviews":    summary.NumReviews,
	}}

	result, err := r.recipes.UpdateOne(ctx, bson.M{"_id": recipeID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return ErrRecipeNotFound
	}

	return nil
}

func (r *mongoRecipeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.recipes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrRecipeNotFound
	}

	if _, err := r.reviews.DeleteMany(ctx, bson.M{"recipeId": id}); err != nil {
		return err
	}

	_, err = r.users.UpdateMany(ctx,
		bson.M{"favorites": id},
		bson.M{"$pull": bson.M{"favorites": id}},
	)
	return err
}

func (r *mongoRecipeRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*model.Recipe, error) {
	cursor, err := r.recipes.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	recipes := []*model.Recipe{}
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, err
	}

	if err := r.attachAuthors(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *mongoRecipeRepository) attachAuthors(ctx context.Context, recipes []*model.Recipe) error {
	ids := make([]string, 0, len(recipes))
	for _, recipe := range recipes {
		ids = append(ids, recipe.AuthorID)
	}

	names, err := usernames(ctx, r.users, ids)
	if err != nil {
		return err
	}

	for _, recipe := range recipes {
		recipe.AuthorUsername = names[recipe.AuthorID]
	}
	return nil
}
