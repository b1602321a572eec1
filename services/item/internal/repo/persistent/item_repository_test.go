package persistent

import (
	"context"
	"testing"

	"thriftgram/pkg/database/databasetest"
	"thriftgram/pkg/models"
	"thriftgram/services/item/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsPattern_EscapesWildcards(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"denim", "%denim%"},
		{"%", `%\%%`},
		{"50_off", `%50\_off%`},
		{`c:\vintage`, `%c:\\vintage%`},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, containsPattern(tc.query))
		})
	}
}

func TestItemRepository_SearchMatchesWildcardsLiterally(t *testing.T) {
	db := databasetest.Open(t)
	repo := NewItemRepository(db)
	suffix := uuid.NewString()[:8]

	seller := &models.User{Email: "search-" + suffix + "@example.com", Username: "search_" + suffix, Password: "x"}
	require.NoError(t, db.Create(seller).Error)
	for _, title := range []string{"100% wool scarf", "Cotton tee", "Linen_shirt"} {
		require.NoError(t, db.Create(&models.Item{
			SellerID:  seller.ID,
			Title:     title,
			Price:     decimal.RequireFromString("12.00"),
			Condition: models.ConditionGood,
			Category:  "clothing",
		}).Error)
	}

	search := func(q string) []string {
		items, _, err := repo.List(context.Background(), entity.ItemFilter{Query: q, SellerUsername: seller.Username, Limit: 10})
		require.NoError(t, err)
		titles := make([]string, len(items))
		for i, it := range items {
			titles[i] = it.Title
		}
		return titles
	}

	assert.Equal(t, []string{"100% wool scarf"}, search("%"))
	assert.Equal(t, []string{"Linen_shirt"}, search("_"))
	assert.ElementsMatch(t, []string{"100% wool scarf", "Cotton tee"}, search("o"))
}
