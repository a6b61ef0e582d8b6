package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/repository"
)

const testSecret = "test-secret-with-at-least-32-characters"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memUserRepo is an in-memory UserRepository keyed by id.
type memUserRepo struct {
	users     map[string]model.User
	favorites map[string]map[string]bool

	createErr error
	updateErr error
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:     map[string]model.User{},
		favorites: map[string]map[string]bool{},
	}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) ByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) ByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) ByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *model.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) AddFavorite(_ context.Context, userID, recipeID string) error {
	if _, ok := r.users[userID]; !ok {
		return repository.ErrUserNotFound
	}
	if r.favorites[userID] == nil {
		r.favorites[userID] = map[string]bool{}
	}
	r.favorites[userID][recipeID] = true
	return nil
}

func (r *memUserRepo) RemoveFavorite(_ context.Context, userID, recipeID string) error {
	delete(r.favorites[userID], recipeID)
	return nil
}

func (r *memUserRepo) Favorites(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for id := range r.favorites[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

type sentMail struct {
	kind  string
	to    string
	value string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, email, _, code string, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: "verification", to: email, value: code})
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, email, _, resetURL string, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: "reset", to: email, value: resetURL})
	return nil
}

func (m *fakeMailer) SendWelcome(_ context.Context, email, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: "welcome", to: email})
	return nil
}

func (m *fakeMailer) last(kind string) (sentMail, bool) {
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

// reviewRepoStub delegates to function fields.
type reviewRepoStub struct {
	createFn        func(context.Context, *model.Review) error
	byRecipeFn      func(context.Context, string) ([]*model.Review, error)
	ratingSummaryFn func(context.Context, string) (model.RatingSummary, error)
}

func (s *reviewRepoStub) Create(ctx context.Context, review *model.Review) error {
	return s.createFn(ctx, review)
}

func (s *reviewRepoStub) ByRecipe(ctx context.Context, recipeID string) ([]*model.Review, error) {
	return s.byRecipeFn(ctx, recipeID)
}

func (s *reviewRepoStub) RatingSummary(ctx context.Context, recipeID string) (model.RatingSummary, error) {
	return s.ratingSummaryFn(ctx, recipeID)
}

var errStore = errors.New("store unavailable")

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngUpload(t *testing.T) *ImageUpload {
	t.Helper()
	data := pngBytes(t)
	return &ImageUpload{Filename: "dish.png", Size: int64(len(data)), Content: bytes.NewReader(data)}
}
