package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"thriftgram/pkg/analysis"
	"thriftgram/pkg/apperr"
	"thriftgram/pkg/models"
	"thriftgram/services/item/internal/entity"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper makes user text match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern returns the ILIKE pattern matching q anywhere in a column.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	List(ctx context.Context, filter entity.ItemFilter) ([]*entity.Item, int64, error)
	Update(ctx context.Context, item *entity.Item) error
	Delete(ctx context.Context, id string) error
	SetAnalysis(ctx context.Context, id string, result *analysis.Result) error

	CreateLike(ctx context.Context, userID, itemID string) error
	DeleteLike(ctx context.Context, userID, itemID string) (bool, error)
	// LikeStats returns like counts per item and the subset the viewer liked.
	LikeStats(ctx context.Context, viewerID string, itemIDs []string) (map[string]int64, map[string]bool, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func withImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("item_images.position ASC")
	}).Preload("Seller")
}

func (r *itemRepository) Create(ctx context.Context, item *entity.Item) error {
	itemModel := ToItemModel(item)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		images := itemModel.Images
		itemModel.Images = nil

		if err := tx.Create(itemModel).Error; err != nil {
			return err
		}

		for i := range images {
			images[i].ItemID = itemModel.ID
			if err := tx.Create(&images[i]).Error; err != nil {
				return err
			}
		}
		itemModel.Images = images

		*item = *ToItemEntity(itemModel)
		return nil
	})
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	var itemModel models.Item
	if err := withImages(r.db.WithContext(ctx)).Where("items.id = ?", id).First(&itemModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("item not found")
		}
		return nil, err
	}
	return ToItemEntity(&itemModel), nil
}

func (r *itemRepository) List(ctx context.Context, filter entity.ItemFilter) ([]*entity.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Item{})

	if q := strings.TrimSpace(filter.Query); q != "" {
		like := containsPattern(q)
		query = query.Where(`(items.title ILIKE ? ESCAPE '\' OR items.description ILIKE ? ESCAPE '\')`, like, like)
	}
	if filter.SellerUsername != "" {
		query = query.Joins("JOIN users sellers ON sellers.id = items.seller_id").
			Where("sellers.username = ?", filter.SellerUsername)
	}
	if filter.Condition != "" {
		query = query.Where("items.condition = ?", string(filter.Condition))
	}
	if filter.Category != "" {
		query = query.Where("items.category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		query = query.Where("items.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("items.price <= ?", *filter.MaxPrice)
	}
	if filter.Available != nil {
		query = query.Where("items.is_sold = ?", !*filter.Available)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var itemModels []models.Item
	if err := withImages(query).
		Order("items.created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&itemModels).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*entity.Item, len(itemModels))
	for i := range itemModels {
		items[i] = ToItemEntity(&itemModels[i])
	}
	return items, total, nil
}

// Update writes the editable listing fields. Sold items are left untouched
// and reported as a conflict.
func (r *itemRepository) Update(ctx context.Context, item *entity.Item) error {
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND is_sold = ?", item.ID, false).
		Updates(map[string]interface{}{
			"title":       item.Title,
			"description": item.Description,
			"price":       item.Price,
			"size":        item.Size,
			"condition":   string(item.Condition),
			"category":    item.Category,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("sold items cannot be edited")
	}
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND is_sold = ?", id, false).Delete(&models.Item{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("sold items cannot be deleted")
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.ItemImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Where("item_id = ?", id).Delete(&models.Wishlist{}).Error
	})
}

func (r *itemRepository) SetAnalysis(ctx context.Context, id string, result *analysis.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", id).
		Update("ai_analysis", datatypes.JSON(raw)).Error
}

func (r *itemRepository) CreateLike(ctx context.Context, userID, itemID string) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{UserID: userID, ItemID: itemID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Validation("you have already liked this item")
	}
	return nil
}

func (r *itemRepository) DeleteLike(ctx context.Context, userID, itemID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&models.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *itemRepository) LikeStats(ctx context.Context, viewerID string, itemIDs []string) (map[string]int64, map[string]bool, error) {
	counts := make(map[string]int64, len(itemIDs))
	liked := make(map[string]bool)
	if len(itemIDs) == 0 {
		return counts, liked, nil
	}

	var rows []struct {
		ItemID string
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("item_id, COUNT(*) AS count").
		Where("item_id IN ?", itemIDs).
		Group("item_id").
		Scan(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, row := range rows {
		counts[row.ItemID] = row.Count
	}

	if viewerID != "" {
		var likedIDs []string
		if err := r.db.WithContext(ctx).Model(&models.Like{}).
			Where("user_id = ? AND item_id IN ?", viewerID, itemIDs).
			Pluck("item_id", &likedIDs).Error; err != nil {
			return nil, nil, err
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	return counts, liked, nil
}
