package usecase

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/eco"
	"thriftgram/pkg/eco/ecotest"
	"thriftgram/pkg/jwt"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/mailer/mailertest"
	"thriftgram/pkg/notify"
	"thriftgram/pkg/notify/notifytest"
	"thriftgram/services/auth/internal/entity"
	"thriftgram/services/auth/internal/repo/persistent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "11111111-1111-1111-1111-111111111111"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, userID string, fields persistent.ProfileFields) (*entity.User, error) {
	args := m.Called(ctx, userID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) CreateFollow(ctx context.Context, followerID, followingID string) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

func (m *MockUserRepository) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountFollows(ctx context.Context, userID string) (int64, int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]*entity.User, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*entity.User), args.Error(1)
}

func (m *MockUserRepository) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*entity.User, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*entity.User), args.Error(1)
}

func (m *MockUserRepository) Leaderboard(ctx context.Context, limit int) ([]*entity.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*entity.LeaderboardEntry), args.Error(1)
}

func (m *MockUserRepository) DashboardStats(ctx context.Context, userID string) (*entity.DashboardStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DashboardStats), args.Error(1)
}

var _ persistent.UserRepository = (*MockUserRepository)(nil)

type fakeStorage struct {
	keys []string
}

func (s *fakeStorage) UploadFile(ctx context.Context, key string, file io.Reader, contentType string) (string, error) {
	s.keys = append(s.keys, key)
	return "https://cdn.test/" + key, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string]string{}
	}
	c.data[key] = value
	return nil
}

const (
	aliceID = "a0000000-0000-0000-0000-000000000001"
	bobID   = "b0000000-0000-0000-0000-000000000002"
)

type fixture struct {
	uc       AuthUseCase
	users    *MockUserRepository
	ledger   *ecotest.Repository
	notes    *notifytest.Repository
	mail     *mailertest.Sender
	storage  *fakeStorage
	cache    *memoryCache
	jwt      *jwt.Service
}

func newFixture() *fixture {
	log := logger.New()
	f := &fixture{
		users:   new(MockUserRepository),
		ledger:  ecotest.NewRepository(aliceID, bobID),
		notes:   notifytest.NewRepository(),
		mail:    &mailertest.Sender{},
		storage: &fakeStorage{},
		cache:   &memoryCache{},
		jwt:     jwt.NewService("test-secret"),
	}
	f.uc = NewAuthUseCase(Deps{
		Users:    f.users,
		JWT:      f.jwt,
		Storage:  f.storage,
		Ledger:   eco.NewLedger(f.ledger, log),
		Notifier: notify.NewNotifier(f.notes, nil, time.Second, log),
		Mailer:   f.mail,
		Cache:    f.cache,
		Logger:   log,
	})
	return f
}

func TestRegister_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("GetByEmail", ctx, "alice@example.com").Return(nil, apperr.NotFound("user not found"))
	f.users.On("GetByUsername", ctx, "alice").Return(nil, apperr.NotFound("user not found"))
	f.users.On("Create", ctx, mock.MatchedBy(func(u *entity.User) bool {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret-pass")) == nil
	})).Return(nil)

	user, token, err := f.uc.Register(ctx, " Alice@Example.com ", "alice", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, token)

	claims, err := f.jwt.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	f.users.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("GetByEmail", ctx, "alice@example.com").Return(&entity.User{ID: aliceID}, nil)

	_, _, err := f.uc.Register(ctx, "alice@example.com", "alice", "secret-pass")
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_ShortPassword(t *testing.T) {
	f := newFixture()

	_, _, err := f.uc.Register(context.Background(), "alice@example.com", "alice", "short")
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}

func TestLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)

	f.users.On("GetByEmail", ctx, "alice@example.com").Return(&entity.User{
		ID: aliceID, Username: "alice", Email: "alice@example.com", Password: string(hash),
	}, nil)
	f.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperr.NotFound("user not found"))

	user, token, err := f.uc.Login(ctx, "alice@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, aliceID, user.ID)
	assert.NotEmpty(t, token)

	_, _, err = f.uc.Login(ctx, "alice@example.com", "wrong-pass")
	assert.True(t, apperr.Is(err, apperr.ErrUnauthorized))

	_, _, err = f.uc.Login(ctx, "ghost@example.com", "secret-pass")
	assert.True(t, apperr.Is(err, apperr.ErrUnauthorized))
}

func TestUploadAvatar_AwardsProfileCompletionOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("UpdateProfile", ctx, aliceID, mock.Anything).Return(&entity.User{
		ID: aliceID, Username: "alice", Bio: "vintage lover", ProfilePicture: "https://cdn.test/pic.jpg",
	}, nil)

	user, err := f.uc.UploadAvatar(ctx, aliceID, bytes.NewReader([]byte("img")), ".jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, eco.ProfileCompletionPoints, user.EcoPoints)
	require.Len(t, f.storage.keys, 1)
	assert.Contains(t, f.storage.keys[0], "profile_pics/"+aliceID+"/")

	_, err = f.uc.UpdateProfile(ctx, aliceID, entity.ProfileUpdate{})
	require.NoError(t, err)

	assert.Equal(t, eco.ProfileCompletionPoints, f.ledger.Balance(aliceID).Points)
	assert.Equal(t, 1, f.ledger.EntriesFor(aliceID, eco.ActionProfileCompleted))
}

func TestUpdateProfile_IncompleteProfileEarnsNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bio := "hello"

	f.users.On("UpdateProfile", ctx, aliceID, persistent.ProfileFields{Bio: &bio}).
		Return(&entity.User{ID: aliceID, Bio: bio}, nil)

	_, err := f.uc.UpdateProfile(ctx, aliceID, entity.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, 0, f.ledger.Balance(aliceID).Points)
}

func TestFollow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("GetByUsername", ctx, "bob").Return(&entity.User{ID: bobID, Username: "bob", Email: "bob@example.com"}, nil)
	f.users.On("GetByID", ctx, aliceID).Return(&entity.User{ID: aliceID, Username: "alice"}, nil)
	f.users.On("CreateFollow", ctx, aliceID, bobID).Return(nil).Once()

	require.NoError(t, f.uc.Follow(ctx, aliceID, "bob"))

	notes := f.notes.For(bobID)
	require.Len(t, notes, 1)
	assert.Equal(t, notify.TypeFollow, notes[0].Type)
	assert.Equal(t, "alice started following you", notes[0].Message)
	assert.Len(t, f.mail.To("bob@example.com"), 1)
}

func TestFollow_SelfAndDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("GetByID", ctx, aliceID).Return(&entity.User{ID: aliceID, Username: "alice"}, nil)
	err := f.uc.Follow(ctx, aliceID, aliceID)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	f.users.On("GetByID", ctx, bobID).Return(&entity.User{ID: bobID, Username: "bob"}, nil)
	f.users.On("CreateFollow", ctx, aliceID, bobID).Return(apperr.Conflict("already following this user"))
	err = f.uc.Follow(ctx, aliceID, bobID)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
	assert.Empty(t, f.notes.For(bobID))
	assert.Empty(t, f.mail.Sent())
}

func TestUnfollow_NotFollowing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("GetByID", ctx, bobID).Return(&entity.User{ID: bobID}, nil)
	f.users.On("DeleteFollow", ctx, aliceID, bobID).Return(false, nil)

	err := f.uc.Unfollow(ctx, aliceID, bobID)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestGetProfile_HidesEmailFromOthers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("GetByUsername", ctx, "bob").Return(&entity.User{ID: bobID, Username: "bob", Email: "bob@example.com"}, nil)
	f.users.On("CountFollows", ctx, bobID).Return(int64(3), int64(1), nil)
	f.users.On("IsFollowing", ctx, aliceID, bobID).Return(true, nil)

	user, err := f.uc.GetProfile(ctx, aliceID, "bob")
	require.NoError(t, err)
	assert.Empty(t, user.Email)
	assert.Equal(t, int64(3), user.FollowersCount)
	assert.True(t, user.IsFollowing)
}

func TestLeaderboard_Cached(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.users.On("Leaderboard", ctx, 10).Return([]*entity.LeaderboardEntry{
		{Rank: 1, UserID: aliceID, Username: "alice", EcoPoints: 120, EcoTier: "BRONZE"},
	}, nil).Once()

	first, err := f.uc.Leaderboard(ctx)
	require.NoError(t, err)
	second, err := f.uc.Leaderboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	f.users.AssertNumberOfCalls(t, "Leaderboard", 1)
}
