package eco

import (
	"testing"

	"thriftgram/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculateImpact(t *testing.T) {
	cases := []struct {
		category string
		want     Impact
	}{
		{"clothing", Impact{CO2SavedKg: 10, WaterSavedLiters: 700, Points: 100}},
		{"shoes", Impact{CO2SavedKg: 14, WaterSavedLiters: 2000, Points: 140}},
		{"accessories", Impact{CO2SavedKg: 2, WaterSavedLiters: 50, Points: 20}},
		{"Shoes ", Impact{CO2SavedKg: 14, WaterSavedLiters: 2000, Points: 140}},
		{"", Impact{CO2SavedKg: 10, WaterSavedLiters: 700, Points: 100}},
		{"furniture", Impact{CO2SavedKg: 10, WaterSavedLiters: 700, Points: 100}},
	}

	for _, tc := range cases {
		t.Run(tc.category, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateImpact(tc.category))
		})
	}
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryShoes, ParseCategory("SHOES"))
	assert.Equal(t, DefaultCategory, ParseCategory("unknown"))
	assert.True(t, IsKnownCategory("accessories"))
	assert.False(t, IsKnownCategory("unknown"))
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		points int
		want   Tier
	}{
		{0, models.TierBronze},
		{499, models.TierBronze},
		{500, models.TierSilver},
		{999, models.TierSilver},
		{1000, models.TierGold},
		{2499, models.TierGold},
		{2500, models.TierPlatinum},
		{100000, models.TierPlatinum},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, TierFor(tc.points), "points=%d", tc.points)
	}
}
