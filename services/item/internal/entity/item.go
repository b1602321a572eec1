package entity

import (
	"time"

	"thriftgram/pkg/analysis"

	"github.com/shopspring/decimal"
)

type Condition string

const (
	ConditionNew     Condition = "NEW"
	ConditionLikeNew Condition = "LIKE_NEW"
	ConditionGood    Condition = "GOOD"
	ConditionFair    Condition = "FAIR"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

const MaxImages = 10

type Seller struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
	EcoTier        string `json:"eco_tier"`
}

type ItemImage struct {
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
	Position int    `json:"position"`
}

type Item struct {
	ID          string           `json:"id"`
	SellerID    string           `json:"seller_id"`
	Seller      *Seller          `json:"seller,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Size        string           `json:"size"`
	Condition   Condition        `json:"condition"`
	Category    string           `json:"category"`
	IsSold      bool             `json:"is_sold"`
	AIAnalysis  *analysis.Result `json:"ai_analysis,omitempty"`
	Images      []ItemImage      `json:"images"`
	LikesCount  int64            `json:"likes_count"`
	IsLiked     bool             `json:"is_liked"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// FirstImage returns the lowest-positioned image URL, if any.
func (i *Item) FirstImage() (string, bool) {
	if len(i.Images) == 0 {
		return "", false
	}
	first := i.Images[0]
	for _, img := range i.Images[1:] {
		if img.Position < first.Position {
			first = img
		}
	}
	return first.ImageURL, true
}

type NewItem struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Size        string
	Condition   Condition
	Category    string
}

type ItemUpdate struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Size        *string          `json:"size"`
	Condition   *Condition       `json:"condition"`
	Category    *string          `json:"category"`
}

type ImageFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type ItemFilter struct {
	Query          string
	SellerUsername string
	Condition      Condition
	Category       string
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	Available      *bool
	Limit          int
	Offset         int
}
