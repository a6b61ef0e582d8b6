package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Recipe struct {
	ID             string     `db:"id" bson:"_id" json:"id"`
	AuthorID       string     `db:"author_id" bson:"authorId" json:"authorId"`
	AuthorUsername string     `db:"author_username" bson:"-" json:"authorUsername"`
	Name           string     `db:"name" bson:"name" json:"name"`
	Description    string     `db:"description" bson:"description" json:"description"`
	Ingredients    StringList `db:"ingredients" bson:"ingredients" json:"ingredients"`
	Instructions   StringList `db:"instructions" bson:"instructions" json:"instructions"`
	ImagePath      string     `db:"image_path" bson:"imagePath" json:"imagePath"`
	CookingTime    int        `db:"cooking_time" bson:"cookingTime" json:"cookingTime"` // minutes
	AverageRating  float64    `db:"average_rating" bson:"averageRating" json:"averageRating"`
	NumReviews     int        `db:"num_reviews" bson:"numReviews" json:"numReviews"`
	CreatedAt      time.Time  `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" bson:"updatedAt" json:"updatedAt"`

	// Computed fields (not in database)
	ImageURL        string `db:"-" bson:"-" json:"imageUrl"`
	DescriptionHTML string `db:"-" bson:"-" json:"descriptionHtml,omitempty"`
}

// RecipeContent is the author-editable part of a recipe. Updates replace all of it.
type RecipeContent struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=5000"`
	Ingredients  []string `json:"ingredients" validate:"required,min=1,dive,required"`
	Instructions []string `json:"instructions" validate:"required,min=1,dive,required"`
	CookingTime  int      `json:"cookingTime" validate:"gte=0,lte=10080"`
}

func (r *Recipe) Apply(c RecipeContent) {
	r.Name = c.Name
	r.Description = c.Description
	r.Ingredients = StringList(c.Ingredients)
	r.Instructions = StringList(c.Instructions)
	r.CookingTime = c.CookingTime
}

func (r *Recipe) IsAuthor(userID string) bool {
	return userID != "" && r.AuthorID == userID
}

// RatingSummary is the cached aggregate of a recipe's reviews.
type RatingSummary struct {
	NumReviews    int     `db:"num_reviews" bson:"numReviews" json:"numReviews"`
	AverageRating float64 `db:"average_rating" bson:"averageRating" json:"averageRating"`
}

type RecipeFilter struct {
	Search string
	Offset int
	Limit  int
}

type RecipePage struct {
	Recipes    []*Recipe `json:"recipes"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
}

// StringList is an ordered list of strings stored as JSON text in SQL columns.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]string(l)); err != nil {
		return nil, err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("string list: unsupported source type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	*l = out
	return nil
}
