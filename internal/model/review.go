package model

import (
	"time"
)

type Review struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	RecipeID  string    `db:"recipe_id" bson:"recipeId" json:"recipeId"`
	UserID    string    `db:"user_id" bson:"userId" json:"userId"`
	Username  string    `db:"username" bson:"-" json:"username"`
	Rating    int       `db:"rating" bson:"rating" json:"rating"`
	Comment   string    `db:"comment" bson:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
}

const (
	MinRating = 1
	MaxRating = 5
)
