package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"thriftgram/pkg/analysis"
	"thriftgram/pkg/apperr"
	"thriftgram/pkg/eco"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/notify"
	"thriftgram/services/item/internal/entity"
	"thriftgram/services/item/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemUseCase interface {
	CreateItem(ctx context.Context, sellerID string, input entity.NewItem, images []entity.ImageFile) (*entity.Item, error)
	GetItem(ctx context.Context, viewerID, itemID string) (*entity.Item, error)
	ListItems(ctx context.Context, viewerID string, filter entity.ItemFilter) ([]*entity.Item, int64, error)
	UpdateItem(ctx context.Context, sellerID, itemID string, update entity.ItemUpdate) (*entity.Item, error)
	DeleteItem(ctx context.Context, sellerID, itemID string) error
	AnalyzeItem(ctx context.Context, sellerID, itemID string) (*analysis.Result, error)

	LikeItem(ctx context.Context, userID, username, itemID string) (int64, error)
	UnlikeItem(ctx context.Context, userID, itemID string) error

	Wishlist(ctx context.Context, userID string, limit, offset int) ([]*entity.WishlistEntry, int64, error)
	AddToWishlist(ctx context.Context, userID, itemID string) (*entity.WishlistEntry, error)
	RemoveFromWishlist(ctx context.Context, userID, itemID string) error

	ListReviews(ctx context.Context, itemID string, limit, offset int) ([]*entity.Review, int64, error)
	CreateReview(ctx context.Context, reviewerID, itemID string, rating int, comment string) (*entity.Review, error)
	UpdateReview(ctx context.Context, reviewerID, reviewID string, rating *int, comment *string) (*entity.Review, error)
	DeleteReview(ctx context.Context, reviewerID, reviewID string) error
}

// ImageStorage is the subset of the S3 client used for listing photos.
type ImageStorage interface {
	UploadFile(ctx context.Context, key string, file io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type Deps struct {
	Items           persistent.ItemRepository
	Reviews         persistent.ReviewRepository
	Wishlists       persistent.WishlistRepository
	Storage         ImageStorage
	Ledger          *eco.Ledger
	Notifier        *notify.Notifier
	Analyzer        analysis.Analyzer
	AnalysisTimeout time.Duration
	Logger          *logger.Logger
}

type itemUseCase struct {
	Deps
}

func NewItemUseCase(deps Deps) ItemUseCase {
	if deps.AnalysisTimeout <= 0 {
		deps.AnalysisTimeout = 15 * time.Second
	}
	return &itemUseCase{Deps: deps}
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperr.Validation("price must be greater than 0")
	}
	if !price.Equal(price.Round(2)) {
		return apperr.Validation("price must have at most 2 decimal places")
	}
	if price.GreaterThanOrEqual(decimal.NewFromInt(100000000)) {
		return apperr.Validation("price is too large")
	}
	return nil
}

func validateListing(title string, condition entity.Condition, category string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title is required")
	}
	if len(title) > 200 {
		return apperr.Validation("title must be at most 200 characters")
	}
	if !condition.Valid() {
		return apperr.Validation("invalid condition %q", condition)
	}
	if category != "" && !eco.IsKnownCategory(category) {
		return apperr.Validation("invalid category %q", category)
	}
	return nil
}

func (uc *itemUseCase) CreateItem(ctx context.Context, sellerID string, input entity.NewItem, images []entity.ImageFile) (*entity.Item, error) {
	if err := validateListing(input.Title, input.Condition, input.Category); err != nil {
		return nil, err
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if len(images) > entity.MaxImages {
		return nil, apperr.Validation("maximum %d images allowed per item", entity.MaxImages)
	}

	category := string(eco.ParseCategory(input.Category))

	item := &entity.Item{
		SellerID:    sellerID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price.Round(2),
		Size:        input.Size,
		Condition:   input.Condition,
		Category:    category,
	}

	for i, img := range images {
		key := fmt.Sprintf("item_images/%s/%s%s", sellerID, uuid.New().String(), strings.ToLower(filepath.Ext(img.Filename)))
		contentType := img.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}

		url, err := uc.Storage.UploadFile(ctx, key, bytes.NewReader(img.Content), contentType)
		if err != nil {
			uc.Logger.Error("Failed to upload image %d for seller %s: %v", i, sellerID, err)
			uc.cleanupImages(ctx, item.Images)
			return nil, apperr.External("image upload", err)
		}
		item.Images = append(item.Images, entity.ItemImage{ImageURL: url, Position: i})
	}

	if err := uc.Items.Create(ctx, item); err != nil {
		uc.Logger.Error("Failed to create item for seller %s: %v", sellerID, err)
		uc.cleanupImages(ctx, item.Images)
		return nil, err
	}

	uc.Logger.Info("Item %s listed by %s", item.ID, sellerID)

	if _, err := uc.Ledger.AwardListing(ctx, sellerID, item.ID, item.Title, item.Category); err != nil {
		uc.Logger.Error("Failed to award listing points for item %s: %v", item.ID, err)
	}

	return item, nil
}

func (uc *itemUseCase) cleanupImages(ctx context.Context, images []entity.ItemImage) {
	for _, img := range images {
		key, ok := uc.Storage.KeyFromURL(img.ImageURL)
		if !ok {
			continue
		}
		if err := uc.Storage.DeleteFile(ctx, key); err != nil {
			uc.Logger.Warn("Failed to delete orphaned image %s: %v", key, err)
		}
	}
}

func (uc *itemUseCase) decorate(ctx context.Context, viewerID string, items ...*entity.Item) error {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	counts, liked, err := uc.Items.LikeStats(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		item.LikesCount = counts[item.ID]
		item.IsLiked = liked[item.ID]
	}
	return nil
}

func (uc *itemUseCase) GetItem(ctx context.Context, viewerID, itemID string) (*entity.Item, error) {
	item, err := uc.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := uc.decorate(ctx, viewerID, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (uc *itemUseCase) ListItems(ctx context.Context, viewerID string, filter entity.ItemFilter) ([]*entity.Item, int64, error) {
	if filter.Condition != "" && !filter.Condition.Valid() {
		return nil, 0, apperr.Validation("invalid condition %q", filter.Condition)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, apperr.Validation("min_price must not exceed max_price")
	}

	items, total, err := uc.Items.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if err := uc.decorate(ctx, viewerID, items...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (uc *itemUseCase) ownedItem(ctx context.Context, sellerID, itemID, action string) (*entity.Item, error) {
	item, err := uc.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SellerID != sellerID {
		return nil, apperr.Forbidden("only the seller can %s this item", action)
	}
	if item.IsSold {
		return nil, apperr.Conflict("sold items cannot be %sd", action)
	}
	return item, nil
}

func (uc *itemUseCase) UpdateItem(ctx context.Context, sellerID, itemID string, update entity.ItemUpdate) (*entity.Item, error) {
	item, err := uc.ownedItem(ctx, sellerID, itemID, "update")
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		item.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.Price != nil {
		if err := validatePrice(*update.Price); err != nil {
			return nil, err
		}
		item.Price = update.Price.Round(2)
	}
	if update.Size != nil {
		item.Size = *update.Size
	}
	if update.Condition != nil {
		item.Condition = *update.Condition
	}
	if update.Category != nil {
		item.Category = *update.Category
	}

	if err := validateListing(item.Title, item.Condition, item.Category); err != nil {
		return nil, err
	}
	item.Category = string(eco.ParseCategory(item.Category))

	if err := uc.Items.Update(ctx, item); err != nil {
		return nil, err
	}
	return uc.GetItem(ctx, sellerID, itemID)
}

func (uc *itemUseCase) DeleteItem(ctx context.Context, sellerID, itemID string) error {
	item, err := uc.ownedItem(ctx, sellerID, itemID, "delete")
	if err != nil {
		return err
	}

	if err := uc.Items.Delete(ctx, itemID); err != nil {
		return err
	}
	uc.cleanupImages(ctx, item.Images)

	uc.Logger.Info("Item %s deleted by %s", itemID, sellerID)
	return nil
}

// AnalyzeItem runs the first image through the analyzer. Only the seller of an
// unsold item may request it. Analyzer failures fall back to an unverified result.
func (uc *itemUseCase) AnalyzeItem(ctx context.Context, sellerID, itemID string) (*analysis.Result, error) {
	item, err := uc.ownedItem(ctx, sellerID, itemID, "analyze")
	if err != nil {
		return nil, err
	}

	imageURL, ok := item.FirstImage()
	if !ok {
		return nil, apperr.Validation("%s", analysis.ErrNoImage.Error())
	}

	result := analysis.Unverified()
	if uc.Analyzer != nil {
		analyzeCtx, cancel := context.WithTimeout(ctx, uc.AnalysisTimeout)
		res, err := uc.Analyzer.Analyze(analyzeCtx, imageURL)
		cancel()
		if err != nil {
			uc.Logger.Warn("Image analysis failed for item %s: %v", itemID, apperr.External("image analysis", err))
		} else {
			result = res
		}
	}

	if err := uc.Items.SetAnalysis(ctx, itemID, result); err != nil {
		uc.Logger.Error("Failed to store analysis for item %s: %v", itemID, err)
		return nil, err
	}
	return result, nil
}

func (uc *itemUseCase) LikeItem(ctx context.Context, userID, username, itemID string) (int64, error) {
	item, err := uc.Items.GetByID(ctx, itemID)
	if err != nil {
		return 0, err
	}

	if err := uc.Items.CreateLike(ctx, userID, itemID); err != nil {
		return 0, err
	}

	if _, err := uc.Notifier.ItemLiked(ctx, userID, username, item.SellerID, item.Title); err != nil {
		uc.Logger.Error("Failed to create like notification for item %s: %v", itemID, err)
	}

	counts, _, err := uc.Items.LikeStats(ctx, "", []string{itemID})
	if err != nil {
		return 0, err
	}
	return counts[itemID], nil
}

func (uc *itemUseCase) UnlikeItem(ctx context.Context, userID, itemID string) error {
	removed, err := uc.Items.DeleteLike(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("like not found")
	}
	return nil
}

func (uc *itemUseCase) Wishlist(ctx context.Context, userID string, limit, offset int) ([]*entity.WishlistEntry, int64, error) {
	return uc.Wishlists.List(ctx, userID, limit, offset)
}

func (uc *itemUseCase) AddToWishlist(ctx context.Context, userID, itemID string) (*entity.WishlistEntry, error) {
	item, err := uc.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	entry, err := uc.Wishlists.Add(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	entry.Item = item
	return entry, nil
}

func (uc *itemUseCase) RemoveFromWishlist(ctx context.Context, userID, itemID string) error {
	removed, err := uc.Wishlists.Remove(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("item not in wishlist")
	}
	return nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return apperr.Validation("rating must be between 1 and 5")
	}
	return nil
}

func (uc *itemUseCase) ListReviews(ctx context.Context, itemID string, limit, offset int) ([]*entity.Review, int64, error) {
	if _, err := uc.Items.GetByID(ctx, itemID); err != nil {
		return nil, 0, err
	}
	return uc.Reviews.ListByItem(ctx, itemID, limit, offset)
}

func (uc *itemUseCase) CreateReview(ctx context.Context, reviewerID, itemID string, rating int, comment string) (*entity.Review, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}

	item, err := uc.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SellerID == reviewerID {
		return nil, apperr.Validation("you cannot review your own item")
	}

	review := &entity.Review{
		ItemID:     itemID,
		ReviewerID: reviewerID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := uc.Reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (uc *itemUseCase) reviewerOwned(ctx context.Context, reviewerID, reviewID string) (*entity.Review, error) {
	review, err := uc.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID != reviewerID {
		return nil, apperr.Forbidden("only the reviewer can modify this review")
	}
	return review, nil
}

func (uc *itemUseCase) UpdateReview(ctx context.Context, reviewerID, reviewID string, rating *int, comment *string) (*entity.Review, error) {
	review, err := uc.reviewerOwned(ctx, reviewerID, reviewID)
	if err != nil {
		return nil, err
	}

	if rating != nil {
		if err := validateRating(*rating); err != nil {
			return nil, err
		}
		review.Rating = *rating
	}
	if comment != nil {
		review.Comment = *comment
	}

	if err := uc.Reviews.Update(ctx, reviewID, review.Rating, review.Comment); err != nil {
		return nil, err
	}
	return uc.Reviews.GetByID(ctx, reviewID)
}

func (uc *itemUseCase) DeleteReview(ctx context.Context, reviewerID, reviewID string) error {
	if _, err := uc.reviewerOwned(ctx, reviewerID, reviewID); err != nil {
		return err
	}
	return uc.Reviews.Delete(ctx, reviewID)
}
