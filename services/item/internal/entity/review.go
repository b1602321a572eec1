package entity

import "time"

type Review struct {
	ID               string    `json:"id"`
	ItemID           string    `json:"item_id"`
	ReviewerID       string    `json:"reviewer_id"`
	ReviewerUsername string    `json:"reviewer_username"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type WishlistEntry struct {
	ID      string    `json:"id"`
	Item    *Item     `json:"item"`
	AddedAt time.Time `json:"added_at"`
}
