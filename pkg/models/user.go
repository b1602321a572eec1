package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EcoTier string

const (
	TierBronze   EcoTier = "BRONZE"
	TierSilver   EcoTier = "SILVER"
	TierGold     EcoTier = "GOLD"
	TierPlatinum EcoTier = "PLATINUM"
)

type User struct {
	ID               string         `gorm:"type:uuid;primary_key" json:"id"`
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`
	Username         string         `gorm:"uniqueIndex;not null" json:"username"`
	Password         string         `gorm:"column:password_hash;not null" json:"-"`
	Bio              string         `gorm:"type:text" json:"bio"`
	ProfilePicture   string         `gorm:"type:varchar(500)" json:"profile_picture"`
	SocialLinks      datatypes.JSON `gorm:"type:jsonb" json:"social_links"`
	EcoPoints        int            `gorm:"not null;default:0" json:"eco_points"`
	EcoTier          EcoTier        `gorm:"type:varchar(20);not null;default:'BRONZE'" json:"eco_tier"`
	CO2Saved         float64        `gorm:"column:co2_saved;not null;default:0" json:"co2_saved"`
	WaterSaved       float64        `gorm:"not null;default:0" json:"water_saved"`
	ItemsSoldCount   int            `gorm:"not null;default:0" json:"items_sold_count"`
	ItemsBoughtCount int            `gorm:"not null;default:0" json:"items_bought_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.EcoTier == "" {
		u.EcoTier = TierBronze
	}
	return nil
}

type Follow struct {
	ID          string    `gorm:"type:uuid;primary_key" json:"id"`
	FollowerID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowingID string    `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `gorm:"foreignKey:FollowerID" json:"-"`
	Following User `gorm:"foreignKey:FollowingID" json:"-"`
}

func (Follow) TableName() string {
	return "follows"
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
