package entity

import (
	"strings"
	"time"
)

type User struct {
	ID               string            `json:"id"`
	Email            string            `json:"email,omitempty"`
	Username         string            `json:"username"`
	Password         string            `json:"-"`
	Bio              string            `json:"bio"`
	ProfilePicture   string            `json:"profile_picture"`
	SocialLinks      map[string]string `json:"social_links"`
	EcoPoints        int               `json:"eco_points"`
	EcoTier          string            `json:"eco_tier"`
	CO2Saved         float64           `json:"co2_saved"`
	WaterSaved       float64           `json:"water_saved"`
	ItemsSoldCount   int               `json:"items_sold_count"`
	ItemsBoughtCount int               `json:"items_bought_count"`
	FollowersCount   int64             `json:"followers_count"`
	FollowingCount   int64             `json:"following_count"`
	IsFollowing      bool              `json:"is_following"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ProfileComplete reports whether the profile qualifies for the completion bonus.
func (u *User) ProfileComplete() bool {
	return strings.TrimSpace(u.Bio) != "" && u.ProfilePicture != ""
}

type ProfileUpdate struct {
	Bio         *string           `json:"bio"`
	SocialLinks map[string]string `json:"social_links"`
}

type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	UserID         string  `json:"user_id"`
	Username       string  `json:"username"`
	ProfilePicture string  `json:"profile_picture"`
	EcoPoints      int     `json:"eco_points"`
	EcoTier        string  `json:"eco_tier"`
	CO2Saved       float64 `json:"co2_saved"`
}

type DashboardStats struct {
	TotalListings  int64   `json:"total_listings"`
	ActiveListings int64   `json:"active_listings"`
	LikesReceived  int64   `json:"likes_received"`
	TotalSales     int64   `json:"total_sales"`
	TotalPurchases int64   `json:"total_purchases"`
	EcoPoints      int     `json:"eco_points"`
	EcoTier        string  `json:"eco_tier"`
	CO2Saved       float64 `json:"co2_saved"`
	WaterSaved     float64 `json:"water_saved"`
}
