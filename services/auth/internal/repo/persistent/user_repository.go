package persistent

import (
	"context"
	"errors"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/models"
	"thriftgram/services/auth/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, fields ProfileFields) (*entity.User, error)

	CreateFollow(ctx context.Context, followerID, followingID string) error
	DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	CountFollows(ctx context.Context, userID string) (followers, following int64, err error)
	ListFollowers(ctx context.Context, userID string, limit, offset int) ([]*entity.User, error)
	ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*entity.User, error)

	Leaderboard(ctx context.Context, limit int) ([]*entity.LeaderboardEntry, error)
	DashboardStats(ctx context.Context, userID string) (*entity.DashboardStats, error)
}

// ProfileFields names the columns a profile update may touch; nil means
// leave unchanged. Eco columns are owned by the ledger and never written here.
type ProfileFields struct {
	Bio            *string
	SocialLinks    map[string]string
	ProfilePicture *string
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	userModel := ToUserModel(user)
	if err := r.db.WithContext(ctx).Create(userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("user with this email or username already exists")
		}
		return err
	}
	*user = *ToUserEntity(userModel)
	return nil
}

func (r *userRepository) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	var userModel models.User
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return ToUserEntity(&userModel), nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *userRepository) UpdateProfile(ctx context.Context, userID string, fields ProfileFields) (*entity.User, error) {
	updates := map[string]interface{}{}
	if fields.Bio != nil {
		updates["bio"] = *fields.Bio
	}
	if fields.SocialLinks != nil {
		updates["social_links"] = socialLinksJSON(fields.SocialLinks)
	}
	if fields.ProfilePicture != nil {
		updates["profile_picture"] = *fields.ProfilePicture
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, apperr.NotFound("user not found")
		}
	}

	return r.GetByID(ctx, userID)
}

func (r *userRepository) CreateFollow(ctx context.Context, followerID, followingID string) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("already following this user")
	}
	return nil
}

func (r *userRepository) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *userRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) CountFollows(ctx context.Context, userID string) (int64, int64, error) {
	var followers, following int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

func (r *userRepository) listJoined(ctx context.Context, joinOn, where, userID string, limit, offset int) ([]*entity.User, error) {
	var userModels []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows."+joinOn+" = users.id").
		Where("follows."+where+" = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&userModels).Error
	if err != nil {
		return nil, err
	}

	users := make([]*entity.User, len(userModels))
	for i := range userModels {
		users[i] = ToUserEntity(&userModels[i])
	}
	return users, nil
}

func (r *userRepository) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]*entity.User, error) {
	return r.listJoined(ctx, "follower_id", "following_id", userID, limit, offset)
}

func (r *userRepository) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*entity.User, error) {
	return r.listJoined(ctx, "following_id", "follower_id", userID, limit, offset)
}

func (r *userRepository) Leaderboard(ctx context.Context, limit int) ([]*entity.LeaderboardEntry, error) {
	var userModels []models.User
	if err := r.db.WithContext(ctx).
		Order("eco_points DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&userModels).Error; err != nil {
		return nil, err
	}

	entries := make([]*entity.LeaderboardEntry, len(userModels))
	for i, u := range userModels {
		entries[i] = &entity.LeaderboardEntry{
			Rank:           i + 1,
			UserID:         u.ID,
			Username:       u.Username,
			ProfilePicture: u.ProfilePicture,
			EcoPoints:      u.EcoPoints,
			EcoTier:        string(u.EcoTier),
			CO2Saved:       u.CO2Saved,
		}
	}
	return entries, nil
}

func (r *userRepository) DashboardStats(ctx context.Context, userID string) (*entity.DashboardStats, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &entity.DashboardStats{
		EcoPoints:  user.EcoPoints,
		EcoTier:    user.EcoTier,
		CO2Saved:   user.CO2Saved,
		WaterSaved: user.WaterSaved,
	}

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Item{}).Where("seller_id = ?", userID).Count(&stats.TotalListings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Item{}).Where("seller_id = ? AND is_sold = ?", userID, false).Count(&stats.ActiveListings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Like{}).
		Joins("JOIN items ON items.id = likes.item_id").
		Where("items.seller_id = ?", userID).
		Count(&stats.LikesReceived).Error; err != nil {
		return nil, err
	}

	settled := []models.OrderStatus{models.OrderPaid, models.OrderShipped, models.OrderDelivered}
	if err := db.Model(&models.Order{}).
		Joins("JOIN items ON items.id = orders.item_id").
		Where("items.seller_id = ? AND orders.status IN ?", userID, settled).
		Count(&stats.TotalSales).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("buyer_id = ? AND status IN ?", userID, settled).
		Count(&stats.TotalPurchases).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
