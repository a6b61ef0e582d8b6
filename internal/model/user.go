package model

import (
	"time"
)

type User struct {
	ID                      string     `db:"id" bson:"_id" json:"id"`
	Email                   string     `db:"email" bson:"email" json:"email"`
	Username                string     `db:"username" bson:"username" json:"username"`
	PasswordHash            string     `db:"password_hash" bson:"passwordHash" json:"-"`
	IsVerified              bool       `db:"is_verified" bson:"isVerified" json:"isVerified"`
	VerificationCode        *string    `db:"verification_code" bson:"verificationCode,omitempty" json:"-"`
	VerificationCodeExpires *time.Time `db:"verification_code_expires" bson:"verificationCodeExpires,omitempty" json:"-"`
	GoogleID                *string    `db:"google_id" bson:"googleId,omitempty" json:"-"`
	CreatedAt               time.Time  `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time  `db:"updated_at" bson:"updatedAt" json:"updatedAt"`

	// Set of recipe IDs. Stored inline for mongo, in user_favorites for SQL.
	Favorites []string `db:"-" bson:"favorites" json:"favorites"`
}

// IssueVerificationCode puts the user into the pending state with a fresh code.
func (u *User) IssueVerificationCode(code string, expires time.Time) {
	u.IsVerified = false
	u.VerificationCode = &code
	u.VerificationCodeExpires = &expires
}

// MarkVerified moves the user to the verified state. A verified user never
// carries a pending code.
func (u *User) MarkVerified() {
	u.IsVerified = true
	u.VerificationCode = nil
	u.VerificationCodeExpires = nil
}

// VerificationExpired treats the expiry instant itself as expired.
func (u *User) VerificationExpired(now time.Time) bool {
	if u.VerificationCodeExpires == nil {
		return true
	}
	return !now.Before(*u.VerificationCodeExpires)
}

func (u *User) HasFavorite(recipeID string) bool {
	for _, id := range u.Favorites {
		if id == recipeID {
			return true
		}
	}
	return false
}
