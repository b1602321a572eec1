package persistent

import (
	"thriftgram/pkg/models"
	"thriftgram/services/order/internal/entity"
)

func ToOrderEntity(m *models.Order) *entity.Order {
	order := &entity.Order{
		ID:     m.ID,
		Status: entity.Status(m.Status),
		Buyer: entity.Party{
			ID:       m.BuyerID,
			Username: m.Buyer.Username,
			Email:    m.Buyer.Email,
		},
		Seller: entity.Party{
			ID:       m.Item.SellerID,
			Username: m.Item.Seller.Username,
			Email:    m.Item.Seller.Email,
		},
		Item: entity.OrderItem{
			ID:    m.ItemID,
			Title: m.Item.Title,
		},
		TotalAmount:       m.TotalAmount,
		PaymentReference:  m.PaymentReference,
		CheckoutSessionID: m.CheckoutSessionID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if len(m.Item.Images) > 0 {
		order.Item.ImageURL = m.Item.Images[0].ImageURL
	}
	return order
}

func ToOrderModel(e *entity.Order) *models.Order {
	return &models.Order{
		ID:                e.ID,
		BuyerID:           e.Buyer.ID,
		ItemID:            e.Item.ID,
		Status:            models.OrderStatus(e.Status),
		PaymentReference:  e.PaymentReference,
		CheckoutSessionID: e.CheckoutSessionID,
		TotalAmount:       e.TotalAmount,
	}
}

func ToProduct(m *models.Item) *entity.Product {
	p := &entity.Product{
		ID:          m.ID,
		SellerID:    m.SellerID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		IsSold:      m.IsSold,
	}
	if len(m.Images) > 0 {
		p.ImageURL = m.Images[0].ImageURL
	}
	return p
}
