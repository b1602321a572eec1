package usecase

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/eco"
	"thriftgram/pkg/jwt"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/mailer"
	"thriftgram/pkg/notify"
	"thriftgram/services/auth/internal/entity"
	"thriftgram/services/auth/internal/repo/persistent"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	leaderboardKey   = "leaderboard:top10"
	leaderboardSize  = 10
	leaderboardTTL   = 60 * time.Second
	minPasswordBytes = 8
)

type AuthUseCase interface {
	Register(ctx context.Context, email, username, password string) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	GetMe(ctx context.Context, userID string) (*entity.User, error)
	GetProfile(ctx context.Context, viewerID, idOrUsername string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, update entity.ProfileUpdate) (*entity.User, error)
	UploadAvatar(ctx context.Context, userID string, file io.Reader, ext, contentType string) (*entity.User, error)

	Follow(ctx context.Context, followerID, target string) error
	Unfollow(ctx context.Context, followerID, target string) error
	Followers(ctx context.Context, target string, limit, offset int) ([]*entity.User, error)
	Following(ctx context.Context, target string, limit, offset int) ([]*entity.User, error)

	EcoHistory(ctx context.Context, target string, limit, offset int) ([]*eco.Entry, int64, error)
	Leaderboard(ctx context.Context) ([]*entity.LeaderboardEntry, error)
	Dashboard(ctx context.Context, userID string) (*entity.DashboardStats, error)
}

// ImageStorage is the subset of the S3 client used for profile pictures.
type ImageStorage interface {
	UploadFile(ctx context.Context, key string, file io.Reader, contentType string) (string, error)
}

// Cache holds the rendered leaderboard between requests.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Deps struct {
	Users        persistent.UserRepository
	JWT          *jwt.Service
	Storage      ImageStorage
	Ledger       *eco.Ledger
	Notifier     *notify.Notifier
	Mailer       mailer.Sender
	Cache        Cache
	EmailTimeout time.Duration
	Logger       *logger.Logger
}

type authUseCase struct {
	Deps
}

func NewAuthUseCase(deps Deps) AuthUseCase {
	if deps.EmailTimeout <= 0 {
		deps.EmailTimeout = 10 * time.Second
	}
	return &authUseCase{Deps: deps}
}

func (uc *authUseCase) Register(ctx context.Context, email, username, password string) (*entity.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if len(password) < minPasswordBytes {
		return nil, "", apperr.Validation("password must be at least %d characters", minPasswordBytes)
	}

	if _, err := uc.Users.GetByEmail(ctx, email); err == nil {
		return nil, "", apperr.Conflict("user with this email already exists")
	} else if !apperr.Is(err, apperr.ErrNotFound) {
		return nil, "", err
	}

	if _, err := uc.Users.GetByUsername(ctx, username); err == nil {
		return nil, "", apperr.Conflict("username already taken")
	} else if !apperr.Is(err, apperr.ErrNotFound) {
		return nil, "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		uc.Logger.Error("Failed to hash password: %v", err)
		return nil, "", err
	}

	user := &entity.User{
		Email:    email,
		Username: username,
		Password: string(hashedPassword),
	}
	if err := uc.Users.Create(ctx, user); err != nil {
		if !apperr.Is(err, apperr.ErrConflict) {
			uc.Logger.Error("Failed to create user: %v", err)
		}
		return nil, "", err
	}

	token, err := uc.JWT.GenerateToken(user.ID, user.Username)
	if err != nil {
		uc.Logger.Error("Failed to generate token: %v", err)
		return nil, "", err
	}

	uc.Logger.Info("User registered: %s (%s)", user.Username, user.ID)
	return user, token, nil
}

func (uc *authUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := uc.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.Is(err, apperr.ErrNotFound) {
			return nil, "", apperr.Unauthorized("invalid credentials")
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apperr.Unauthorized("invalid credentials")
	}

	token, err := uc.JWT.GenerateToken(user.ID, user.Username)
	if err != nil {
		uc.Logger.Error("Failed to generate token: %v", err)
		return nil, "", err
	}

	return user, token, nil
}

func (uc *authUseCase) GetMe(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.withFollowCounts(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *authUseCase) GetProfile(ctx context.Context, viewerID, idOrUsername string) (*entity.User, error) {
	user, err := uc.resolve(ctx, idOrUsername)
	if err != nil {
		return nil, err
	}
	if err := uc.withFollowCounts(ctx, user); err != nil {
		return nil, err
	}

	if viewerID != "" && viewerID != user.ID {
		following, err := uc.Users.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return nil, err
		}
		user.IsFollowing = following
	}

	// Other users never see the account email.
	if viewerID != user.ID {
		user.Email = ""
	}
	return user, nil
}

func (uc *authUseCase) UpdateProfile(ctx context.Context, userID string, update entity.ProfileUpdate) (*entity.User, error) {
	if update.Bio != nil && len(*update.Bio) > 500 {
		return nil, apperr.Validation("bio must be at most 500 characters")
	}
	for network, link := range update.SocialLinks {
		if strings.TrimSpace(network) == "" || len(link) > 200 {
			return nil, apperr.Validation("invalid social link for %q", network)
		}
	}

	user, err := uc.Users.UpdateProfile(ctx, userID, persistent.ProfileFields{
		Bio:         update.Bio,
		SocialLinks: update.SocialLinks,
	})
	if err != nil {
		return nil, err
	}

	return uc.afterProfileChange(ctx, user), nil
}

func (uc *authUseCase) UploadAvatar(ctx context.Context, userID string, file io.Reader, ext, contentType string) (*entity.User, error) {
	key := "profile_pics/" + userID + "/" + uuid.New().String() + ext
	url, err := uc.Storage.UploadFile(ctx, key, file, contentType)
	if err != nil {
		uc.Logger.Error("Failed to upload avatar for %s: %v", userID, err)
		return nil, apperr.External("avatar upload", err)
	}

	user, err := uc.Users.UpdateProfile(ctx, userID, persistent.ProfileFields{ProfilePicture: &url})
	if err != nil {
		return nil, err
	}

	return uc.afterProfileChange(ctx, user), nil
}

// afterProfileChange grants the one-off completion bonus and returns the
// user with the refreshed balance.
func (uc *authUseCase) afterProfileChange(ctx context.Context, user *entity.User) *entity.User {
	if !user.ProfileComplete() {
		return user
	}

	res, err := uc.Ledger.AwardProfileCompletion(ctx, user.ID)
	if err != nil {
		uc.Logger.Error("Failed to award profile completion to %s: %v", user.ID, err)
		return user
	}
	if res.Applied {
		user.EcoPoints = res.Balance.Points
		user.EcoTier = string(res.Balance.Tier)
	}
	return user
}

func (uc *authUseCase) Follow(ctx context.Context, followerID, target string) error {
	followed, err := uc.resolve(ctx, target)
	if err != nil {
		return err
	}
	if followed.ID == followerID {
		return apperr.Validation("you cannot follow yourself")
	}

	follower, err := uc.Users.GetByID(ctx, followerID)
	if err != nil {
		return err
	}

	if err := uc.Users.CreateFollow(ctx, followerID, followed.ID); err != nil {
		return err
	}
	uc.Logger.Info("User %s followed %s", followerID, followed.ID)

	if _, err := uc.Notifier.UserFollowed(ctx, follower.ID, follower.Username, followed.ID); err != nil {
		uc.Logger.Error("Failed to create follow notification for %s: %v", followed.ID, err)
	}

	email, err := mailer.NewFollower(mailer.Recipient{Username: followed.Username, Email: followed.Email}, follower.Username)
	if err != nil {
		uc.Logger.Error("Failed to render follower email: %v", err)
		return nil
	}
	mailer.Deliver(ctx, uc.Mailer, email, uc.EmailTimeout, uc.Logger)
	return nil
}

func (uc *authUseCase) Unfollow(ctx context.Context, followerID, target string) error {
	followed, err := uc.resolve(ctx, target)
	if err != nil {
		return err
	}

	removed, err := uc.Users.DeleteFollow(ctx, followerID, followed.ID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("you are not following this user")
	}
	return nil
}

func (uc *authUseCase) Followers(ctx context.Context, target string, limit, offset int) ([]*entity.User, error) {
	user, err := uc.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	users, err := uc.Users.ListFollowers(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return hideEmails(users), nil
}

func (uc *authUseCase) Following(ctx context.Context, target string, limit, offset int) ([]*entity.User, error) {
	user, err := uc.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	users, err := uc.Users.ListFollowing(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return hideEmails(users), nil
}

func (uc *authUseCase) EcoHistory(ctx context.Context, target string, limit, offset int) ([]*eco.Entry, int64, error) {
	user, err := uc.resolve(ctx, target)
	if err != nil {
		return nil, 0, err
	}
	return uc.Ledger.History(ctx, user.ID, limit, offset)
}

func (uc *authUseCase) Leaderboard(ctx context.Context) ([]*entity.LeaderboardEntry, error) {
	if uc.Cache != nil {
		if cached, ok, err := uc.Cache.Get(ctx, leaderboardKey); err == nil && ok {
			var entries []*entity.LeaderboardEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
		} else if err != nil {
			uc.Logger.Warn("Leaderboard cache read failed: %v", err)
		}
	}

	entries, err := uc.Users.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		return nil, err
	}

	if uc.Cache != nil {
		if raw, err := json.Marshal(entries); err == nil {
			if err := uc.Cache.Set(ctx, leaderboardKey, string(raw), leaderboardTTL); err != nil {
				uc.Logger.Warn("Leaderboard cache write failed: %v", err)
			}
		}
	}
	return entries, nil
}

func (uc *authUseCase) Dashboard(ctx context.Context, userID string) (*entity.DashboardStats, error) {
	return uc.Users.DashboardStats(ctx, userID)
}

// resolve accepts either a user id or a username.
func (uc *authUseCase) resolve(ctx context.Context, idOrUsername string) (*entity.User, error) {
	if _, err := uuid.Parse(idOrUsername); err == nil {
		return uc.Users.GetByID(ctx, idOrUsername)
	}
	return uc.Users.GetByUsername(ctx, idOrUsername)
}

func (uc *authUseCase) withFollowCounts(ctx context.Context, user *entity.User) error {
	followers, following, err := uc.Users.CountFollows(ctx, user.ID)
	if err != nil {
		return err
	}
	user.FollowersCount = followers
	user.FollowingCount = following
	return nil
}

func hideEmails(users []*entity.User) []*entity.User {
	for _, u := range users {
		u.Email = ""
	}
	return users
}
