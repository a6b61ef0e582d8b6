package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/templui/recipehub/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenSubject = errors.New("token issued for a different user")
)

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ResetClaims is the payload of a password reset token.
type ResetClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues the three credentials of the account lifecycle:
// session tokens, verification codes and password reset tokens.
type TokenService struct {
	secret        string
	issuer        string
	sessionExpiry time.Duration
	resetExpiry   time.Duration
	now           func() time.Time
}

func NewTokenService(secret, issuer string, sessionExpiry, resetExpiry time.Duration, now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		secret:        secret,
		issuer:        issuer,
		sessionExpiry: sessionExpiry,
		resetExpiry:   resetExpiry,
		now:           now,
	}
}

func (s *TokenService) SessionExpiry() time.Duration {
	return s.sessionExpiry
}

func (s *TokenService) ResetExpiry() time.Duration {
	return s.resetExpiry
}

// IssueSession signs a session token for user and returns it with its expiry.
func (s *TokenService) IssueSession(user *model.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.sessionExpiry)
	claims := SessionClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := s.sign(claims, s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// VerifySession validates signature and expiry and returns the carried identity.
func (s *TokenService) VerifySession(tokenString string) (*model.SessionUser, error) {
	claims := &SessionClaims{}
	if err := s.parse(tokenString, claims, s.secret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &model.SessionUser{
		ID:       claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

// IssueReset signs a reset token with a key derived from the user's current
// password hash, so it stops verifying once the password changes.
func (s *TokenService) IssueReset(user *model.User) (string, error) {
	now := s.now()
	claims := ResetClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetExpiry)),
		},
	}

	return s.sign(claims, s.resetKey(user))
}

// VerifyReset checks a reset token against the user's current password hash.
func (s *TokenService) VerifyReset(tokenString string, user *model.User) error {
	claims := &ResetClaims{}
	if err := s.parse(tokenString, claims, s.resetKey(user)); err != nil {
		return err
	}
	if claims.UserID != user.ID {
		return ErrTokenSubject
	}
	return nil
}

func (s *TokenService) resetKey(user *model.User) string {
	return s.secret + user.PasswordHash
}

// VerificationCode generates a 6-digit one-time code from a fresh random TOTP secret.
func (s *TokenService) VerificationCode(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate code secret: %w", err)
	}

	return totp.GenerateCodeCustom(key.Secret(), s.now(), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// CodesMatch compares verification codes in constant time.
func CodesMatch(submitted, stored string) bool {
	return len(submitted) == len(stored) && subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}

func (s *TokenService) sign(claims jwt.Claims, key string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *TokenService) parse(tokenString string, claims jwt.Claims, key string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(key), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return nil
}
