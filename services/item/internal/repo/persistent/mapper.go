package persistent

import (
	"encoding/json"

	"thriftgram/pkg/analysis"
	"thriftgram/pkg/models"
	"thriftgram/services/item/internal/entity"
)

func ToItemEntity(m *models.Item) *entity.Item {
	if m == nil {
		return nil
	}

	item := &entity.Item{
		ID:          m.ID,
		SellerID:    m.SellerID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Size:        m.Size,
		Condition:   entity.Condition(m.Condition),
		Category:    m.Category,
		IsSold:      m.IsSold,
		Images:      make([]entity.ItemImage, len(m.Images)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	for i, img := range m.Images {
		item.Images[i] = entity.ItemImage{ID: img.ID, ImageURL: img.ImageURL, Position: img.Position}
	}

	if m.Seller.ID != "" {
		item.Seller = &entity.Seller{
			ID:             m.Seller.ID,
			Username:       m.Seller.Username,
			ProfilePicture: m.Seller.ProfilePicture,
			EcoTier:        string(m.Seller.EcoTier),
		}
	}

	if len(m.AIAnalysis) > 0 && string(m.AIAnalysis) != "null" {
		var result analysis.Result
		if err := json.Unmarshal(m.AIAnalysis, &result); err == nil {
			item.AIAnalysis = &result
		}
	}

	return item
}

func ToItemModel(e *entity.Item) *models.Item {
	m := &models.Item{
		ID:          e.ID,
		SellerID:    e.SellerID,
		Title:       e.Title,
		Description: e.Description,
		Price:       e.Price,
		Size:        e.Size,
		Condition:   models.ItemCondition(e.Condition),
		Category:    e.Category,
		IsSold:      e.IsSold,
		Images:      make([]models.ItemImage, len(e.Images)),
	}
	for i, img := range e.Images {
		m.Images[i] = models.ItemImage{ID: img.ID, ImageURL: img.ImageURL, Position: img.Position}
	}
	return m
}

func ToReviewEntity(m *models.Review) *entity.Review {
	return &entity.Review{
		ID:               m.ID,
		ItemID:           m.ItemID,
		ReviewerID:       m.ReviewerID,
		ReviewerUsername: m.Reviewer.Username,
		Rating:           m.Rating,
		Comment:          m.Comment,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
