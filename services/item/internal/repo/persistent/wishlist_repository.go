package persistent

import (
	"context"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/models"
	"thriftgram/services/item/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistRepository interface {
	List(ctx context.Context, userID string, limit, offset int) ([]*entity.WishlistEntry, int64, error)
	Add(ctx context.Context, userID, itemID string) (*entity.WishlistEntry, error)
	Remove(ctx context.Context, userID, itemID string) (bool, error)
}

type wishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) List(ctx context.Context, userID string, limit, offset int) ([]*entity.WishlistEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Wishlist{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Wishlist
	if err := query.
		Preload("Item.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_images.position ASC")
		}).
		Preload("Item.Seller").
		Order("added_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*entity.WishlistEntry, len(rows))
	for i := range rows {
		entries[i] = &entity.WishlistEntry{
			ID:      rows[i].ID,
			Item:    ToItemEntity(&rows[i].Item),
			AddedAt: rows[i].AddedAt,
		}
	}
	return entries, total, nil
}

func (r *wishlistRepository) Add(ctx context.Context, userID, itemID string) (*entity.WishlistEntry, error) {
	row := &models.Wishlist{UserID: userID, ItemID: itemID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("item is already in your wishlist")
	}
	return &entity.WishlistEntry{ID: row.ID, AddedAt: row.AddedAt}, nil
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, itemID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&models.Wishlist{})
	return res.RowsAffected > 0, res.Error
}
