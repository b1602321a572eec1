// Package eco computes the environmental impact of second-hand items and
// keeps the per-user points ledger that rewards it.
package eco

import (
	"math"
	"strings"

	"thriftgram/pkg/models"
)

type Category string

const (
	CategoryClothing    Category = "clothing"
	CategoryShoes       Category = "shoes"
	CategoryAccessories Category = "accessories"

	DefaultCategory = CategoryClothing
)

type Action string

const (
	ActionItemListed       Action = "ITEM_LISTED"
	ActionItemPurchased    Action = "ITEM_PURCHASED"
	ActionProfileCompleted Action = "PROFILE_COMPLETED"
	ActionSustainableBrand Action = "SUSTAINABLE_BRAND"
	ActionLongevityBonus   Action = "LONGEVITY_BONUS"
)

const (
	PurchasePoints          = 20
	ProfileCompletionPoints = 100
)

type Tier = models.EcoTier

// Impact is the saving attributed to keeping one item in circulation.
type Impact struct {
	CO2SavedKg       float64 `json:"co2_saved_kg"`
	WaterSavedLiters float64 `json:"water_saved_liters"`
	Points           int     `json:"points_earned"`
}

var impactTable = map[Category]struct{ co2, water float64 }{
	CategoryClothing:    {co2: 10.0, water: 700},
	CategoryShoes:       {co2: 14.0, water: 2000},
	CategoryAccessories: {co2: 2.0, water: 50},
}

// ParseCategory normalizes a category name; unknown or empty names map to
// the default category.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := impactTable[c]; ok {
		return c
	}
	return DefaultCategory
}

func IsKnownCategory(raw string) bool {
	_, ok := impactTable[Category(strings.ToLower(strings.TrimSpace(raw)))]
	return ok
}

func CalculateImpact(category string) Impact {
	row := impactTable[ParseCategory(category)]
	return Impact{
		CO2SavedKg:       row.co2,
		WaterSavedLiters: row.water,
		Points:           int(math.Floor(row.co2 * 10)),
	}
}

func TierFor(points int) Tier {
	switch {
	case points >= 2500:
		return models.TierPlatinum
	case points >= 1000:
		return models.TierGold
	case points >= 500:
		return models.TierSilver
	default:
		return models.TierBronze
	}
}
