package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID                string          `gorm:"type:uuid;primary_key" json:"id"`
	BuyerID           string          `gorm:"type:uuid;not null;index:idx_orders_buyer_created" json:"buyer_id"`
	ItemID            string          `gorm:"type:uuid;not null;index" json:"item_id"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	PaymentReference  string          `gorm:"type:varchar(255);index" json:"payment_reference"`
	CheckoutSessionID string          `gorm:"type:varchar(255);index" json:"checkout_session_id"`
	TotalAmount       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	CreatedAt         time.Time       `gorm:"index:idx_orders_buyer_created" json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	Buyer User `gorm:"foreignKey:BuyerID" json:"-"`
	Item  Item `gorm:"foreignKey:ItemID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = OrderPending
	}
	return nil
}
