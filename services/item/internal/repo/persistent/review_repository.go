package persistent

import (
	"context"
	"errors"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/models"
	"thriftgram/services/item/internal/entity"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Review, int64, error)
	Update(ctx context.Context, id string, rating int, comment string) error
	Delete(ctx context.Context, id string) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	reviewModel := &models.Review{
		ItemID:     review.ItemID,
		ReviewerID: review.ReviewerID,
		Rating:     review.Rating,
		Comment:    review.Comment,
	}
	if err := r.db.WithContext(ctx).Create(reviewModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("you have already reviewed this item")
		}
		return err
	}

	review.ID = reviewModel.ID
	review.CreatedAt = reviewModel.CreatedAt
	review.UpdatedAt = reviewModel.UpdatedAt
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	var reviewModel models.Review
	if err := r.db.WithContext(ctx).Preload("Reviewer").Where("id = ?", id).First(&reviewModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("review not found")
		}
		return nil, err
	}
	return ToReviewEntity(&reviewModel), nil
}

func (r *reviewRepository) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).Where("item_id = ?", itemID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviewModels []models.Review
	if err := query.Preload("Reviewer").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviewModels).Error; err != nil {
		return nil, 0, err
	}

	reviews := make([]*entity.Review, len(reviewModels))
	for i := range reviewModels {
		reviews[i] = ToReviewEntity(&reviewModels[i])
	}
	return reviews, total, nil
}

func (r *reviewRepository) Update(ctx context.Context, id string, rating int, comment string) error {
	return r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"rating": rating, "comment": comment}).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Review{}).Error
}
