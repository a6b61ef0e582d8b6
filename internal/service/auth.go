package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/recipehub/internal/apperror"
	"github.com/templui/recipehub/internal/metrics"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/repository"
	"github.com/templui/recipehub/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const ProviderGoogle = "google"

var (
	// Returned for both unknown email and wrong password.
	errInvalidCredentials = apperror.Auth("invalid credentials")
	errInvalidCode        = apperror.Validation("invalid or expired verification code")
	errInvalidResetLink   = apperror.Auth("invalid or expired link")
)

// Compared against when the email is unknown so both login failures cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("recipehub-timing-equaliser"), bcrypt.DefaultCost)

type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// RegisterResult reports a persisted registration. EmailSent is false when the
// account was saved but the verification email could not be delivered.
type RegisterResult struct {
	UserID    string
	EmailSent bool
}

// Principal is an identity already authenticated by an external provider.
type Principal struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
}

// Session is an issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService runs the account lifecycle: register, verify, login,
// forgot/reset password and OAuth sign-in.
type AuthService struct {
	userRepository         repository.UserRepository
	tokens                 *TokenService
	mailer                 Mailer
	verificationCodeExpiry time.Duration
	frontendURL            string
	now                    func() time.Time
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokens *TokenService,
	mailer Mailer,
	verificationCodeExpiry time.Duration,
	frontendURL string,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		userRepository:         userRepository,
		tokens:                 tokens,
		mailer:                 mailer,
		verificationCodeExpiry: verificationCodeExpiry,
		frontendURL:            strings.TrimSuffix(frontendURL, "/"),
		now:                    now,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Register creates a pending account, or refreshes the password and code of an
// existing unverified one, and emails a verification code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if email == "" || in.Password == "" || username == "" {
		return nil, apperror.Validation("email, password and username are required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Internal("failed to look up user", err)
	}
	if user != nil && user.IsVerified {
		return nil, apperror.Conflict("email already registered")
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	code, err := s.tokens.VerificationCode(email)
	if err != nil {
		return nil, apperror.Internal("failed to generate verification code", err)
	}

	now := s.now().UTC()
	expires := now.Add(s.verificationCodeExpiry)
	outcome := "reissued"

	if user != nil {
		// Unverified placeholder: same identity, new secret and code
		user.PasswordHash = hash
		user.IssueVerificationCode(code, expires)
		user.UpdatedAt = now
		if err := s.userRepository.Update(ctx, user); err != nil {
			return nil, apperror.Internal("failed to update user", err)
		}
	} else {
		if err := s.ensureUsernameFree(ctx, username); err != nil {
			return nil, err
		}

		user = &model.User{
			ID:           uuid.New().String(),
			Email:        email,
			Username:     username,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		user.IssueVerificationCode(code, expires)

		err = s.userRepository.Create(ctx, user)
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperror.Conflict("email already registered")
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, apperror.Conflict("username already taken")
		case err != nil:
			return nil, apperror.Internal("failed to create user", err)
		}
		outcome = "created"
	}

	result := &RegisterResult{UserID: user.ID, EmailSent: true}

	err = s.mailer.SendVerificationCode(ctx, user.Email, user.Username, code, s.verificationCodeExpiry)
	if err != nil {
		// The account stays; the user can register again to get a new code
		slog.Error("failed to send verification email", "error", err, "user_id", user.ID)
		result.EmailSent = false
		outcome = "email_failed"
	}

	metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	slog.Info("user registered", "user_id", user.ID, "outcome", outcome)
	return result, nil
}

func (s *AuthService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.userRepository.ByUsername(ctx, username)
	if err == nil {
		return apperror.Conflict("username already taken")
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return apperror.Internal("failed to look up username", err)
	}
	return nil
}

// Verify activates the account when code matches and has not expired.
// A code submitted at exactly its expiry instant is rejected.
func (s *AuthService) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return apperror.Validation("email and verification code are required")
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperror.NotFound("user not found")
	}
	if err != nil {
		return apperror.Internal("failed to look up user", err)
	}

	if user.IsVerified || user.VerificationCode == nil {
		return errInvalidCode
	}
	if !CodesMatch(code, *user.VerificationCode) || user.VerificationExpired(s.now()) {
		return errInvalidCode
	}

	user.MarkVerified()
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepository.Update(ctx, user); err != nil {
		return apperror.Internal("failed to update user", err)
	}

	if err := s.mailer.SendWelcome(ctx, user.Email, user.Username); err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	slog.Info("user verified", "user_id", user.ID)
	return nil
}

// ResendVerification issues a fresh code for a pending account without
// touching its password.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperror.Validation("email is required")
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperror.NotFound("user not found")
	}
	if err != nil {
		return apperror.Internal("failed to look up user", err)
	}
	if user.IsVerified {
		return apperror.Conflict("account already verified")
	}

	code, err := s.tokens.VerificationCode(email)
	if err != nil {
		return apperror.Internal("failed to generate verification code", err)
	}

	now := s.now().UTC()
	user.IssueVerificationCode(code, now.Add(s.verificationCodeExpiry))
	user.UpdatedAt = now
	if err := s.userRepository.Update(ctx, user); err != nil {
		return apperror.Internal("failed to update user", err)
	}

	err = s.mailer.SendVerificationCode(ctx, user.Email, user.Username, code, s.verificationCodeExpiry)
	if err != nil {
		return apperror.Dependency("failed to send verification email", err)
	}
	return nil
}

// Login checks credentials and issues a session token. Verification status is
// not checked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.Internal("failed to look up user", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, errInvalidCredentials
	}

	if err := s.ComparePassword(password, user.PasswordHash); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, errInvalidCredentials
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return session, nil
}

// ForgotPassword emails a reset link when the account exists. It never reports
// whether it does.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	email = normalizeEmail(email)
	if email == "" {
		return
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			slog.Error("failed to look up user for password reset", "error", err)
		}
		return
	}

	token, err := s.tokens.IssueReset(user)
	if err != nil {
		slog.Error("failed to issue reset token", "error", err, "user_id", user.ID)
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s/%s", s.frontendURL, url.PathEscape(user.ID), url.PathEscape(token))
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, resetURL, s.tokens.ResetExpiry()); err != nil {
		slog.Error("failed to send password reset email", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("password reset link sent", "user_id", user.ID)
}

// ResetPassword replaces the password when token was issued against the
// current one. Changing the hash invalidates every other outstanding reset token.
func (s *AuthService) ResetPassword(ctx context.Context, userID, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperror.Validation(err.Error())
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperror.NotFound("user not found")
	}
	if err != nil {
		return apperror.Internal("failed to look up user", err)
	}

	if err := s.tokens.VerifyReset(token, user); err != nil {
		slog.Debug("reset token rejected", "error", err, "user_id", user.ID)
		return errInvalidResetLink
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return apperror.Internal("failed to hash password", err)
	}

	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepository.Update(ctx, user); err != nil {
		return apperror.Internal("failed to update user", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// AuthenticateOAuth signs in a provider-authenticated principal. Unknown emails
// get a new verified account; known ones are marked verified and linked.
func (s *AuthService) AuthenticateOAuth(ctx context.Context, p Principal) (*Session, error) {
	email := normalizeEmail(p.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Validation("provider did not supply a valid email")
	}

	now := s.now().UTC()
	user, err := s.userRepository.ByEmail(ctx, email)
	switch {
	case err == nil:
		changed := false
		if !user.IsVerified {
			user.MarkVerified()
			changed = true
		}
		if p.Provider == ProviderGoogle && p.ProviderID != "" && user.GoogleID == nil {
			user.GoogleID = &p.ProviderID
			changed = true
		}
		if changed {
			user.UpdatedAt = now
			if err := s.userRepository.Update(ctx, user); err != nil {
				return nil, apperror.Internal("failed to link account", err)
			}
			slog.Info("OAuth account linked", "user_id", user.ID, "provider", p.Provider)
		}

	case errors.Is(err, repository.ErrUserNotFound):
		user, err = s.createOAuthUser(ctx, email, p, now)
		if err != nil {
			return nil, err
		}

	default:
		return nil, apperror.Internal("failed to look up user", err)
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("oauth").Inc()
	return session, nil
}

func (s *AuthService) createOAuthUser(ctx context.Context, email string, p Principal, now time.Time) (*model.User, error) {
	// OAuth accounts get an unguessable password; they can set a real one via reset
	secret, err := randomHex(32)
	if err != nil {
		return nil, apperror.Internal("failed to generate password", err)
	}
	hash, err := s.HashPassword(secret)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.MarkVerified()
	if p.Provider == ProviderGoogle && p.ProviderID != "" {
		providerID := p.ProviderID
		user.GoogleID = &providerID
	}

	base := usernameBase(p.DisplayName, email)
	for attempt := 0; attempt < 5; attempt++ {
		user.Username, err = s.availableUsername(ctx, base)
		if err != nil {
			return nil, err
		}

		err = s.userRepository.Create(ctx, user)
		if errors.Is(err, repository.ErrDuplicateUsername) {
			continue
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Lost a race with a concurrent sign-in for the same email
			existing, lookupErr := s.userRepository.ByEmail(ctx, email)
			if lookupErr != nil {
				return nil, apperror.Internal("failed to look up user", lookupErr)
			}
			return existing, nil
		}
		if err != nil {
			return nil, apperror.Internal("failed to create user", err)
		}

		slog.Info("new OAuth user created", "user_id", user.ID, "provider", p.Provider)
		return user, nil
	}

	return nil, apperror.Internal("failed to create user", errors.New("no free username"))
}

func (s *AuthService) availableUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 0; i < 10; i++ {
		_, err := s.userRepository.ByUsername(ctx, candidate)
		if errors.Is(err, repository.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", apperror.Internal("failed to look up username", err)
		}

		suffix, err := randomHex(2)
		if err != nil {
			return "", apperror.Internal("failed to generate username", err)
		}
		candidate = base + "-" + suffix
	}
	return base + "-" + uuid.New().String()[:8], nil
}

// VerifySession resolves a bearer token to its identity.
func (s *AuthService) VerifySession(token string) (*model.SessionUser, error) {
	user, err := s.tokens.VerifySession(token)
	if err != nil {
		return nil, apperror.Auth("invalid or expired token")
	}
	return user, nil
}

func (s *AuthService) issueSession(user *model.User) (*Session, error) {
	token, expires, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, apperror.Internal("failed to issue session", err)
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func randomHex(n int) (string, error) {
	bytes := make([]byte, n)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
