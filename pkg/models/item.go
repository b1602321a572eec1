package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ItemCondition string

const (
	ConditionNew     ItemCondition = "NEW"
	ConditionLikeNew ItemCondition = "LIKE_NEW"
	ConditionGood    ItemCondition = "GOOD"
	ConditionFair    ItemCondition = "FAIR"
)

type Item struct {
	ID          string          `gorm:"type:uuid;primary_key" json:"id"`
	SellerID    string          `gorm:"type:uuid;not null;index" json:"seller_id"`
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Size        string          `gorm:"type:varchar(20)" json:"size"`
	Condition   ItemCondition   `gorm:"type:varchar(20);not null" json:"condition"`
	Category    string          `gorm:"type:varchar(20);not null;default:'clothing'" json:"category"`
	IsSold      bool            `gorm:"not null;default:false;index" json:"is_sold"`
	AIAnalysis  datatypes.JSON  `gorm:"column:ai_analysis;type:jsonb" json:"ai_analysis,omitempty"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Seller User        `gorm:"foreignKey:SellerID" json:"-"`
	Images []ItemImage `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"images"`
}

func (Item) TableName() string {
	return "items"
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

type ItemImage struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	ItemID    string    `gorm:"type:uuid;not null;index" json:"item_id"`
	ImageURL  string    `gorm:"type:varchar(500);not null" json:"image_url"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

func (ItemImage) TableName() string {
	return "item_images"
}

func (i *ItemImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

type Like struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_like_user_item" json:"user_id"`
	ItemID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_like_user_item;index" json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

type Wishlist struct {
	ID      string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_item" json:"user_id"`
	ItemID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_item" json:"item_id"`
	AddedAt time.Time `gorm:"autoCreateTime" json:"added_at"`

	Item Item `gorm:"foreignKey:ItemID" json:"-"`
}

func (Wishlist) TableName() string {
	return "wishlists"
}

func (w *Wishlist) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

type Review struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	ItemID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_review_item_reviewer" json:"item_id"`
	ReviewerID string    `gorm:"type:uuid;not null;uniqueIndex:idx_review_item_reviewer" json:"reviewer_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Reviewer User `gorm:"foreignKey:ReviewerID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
