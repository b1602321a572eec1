package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"thriftgram/pkg/analysis"
	"thriftgram/pkg/apperr"
	"thriftgram/pkg/eco"
	"thriftgram/pkg/eco/ecotest"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/notify"
	"thriftgram/pkg/notify/notifytest"
	"thriftgram/services/item/internal/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sellerID = "seller-1"
	buyerID  = "buyer-1"
)

type itemFixture struct {
	uc       ItemUseCase
	items    *memoryItems
	reviews  *memoryReviews
	storage  *memoryStorage
	ledger   *ecotest.Repository
	notes    *notifytest.Repository
	analyzer *stubAnalyzer
}

func newItemFixture() *itemFixture {
	log := logger.New()
	f := &itemFixture{
		items:    newMemoryItems(),
		reviews:  newMemoryReviews(),
		storage:  newMemoryStorage(),
		ledger:   ecotest.NewRepository(sellerID, buyerID),
		notes:    notifytest.NewRepository(),
		analyzer: &stubAnalyzer{},
	}
	f.uc = NewItemUseCase(Deps{
		Items:           f.items,
		Reviews:         f.reviews,
		Wishlists:       &memoryWishlists{},
		Storage:         f.storage,
		Ledger:          eco.NewLedger(f.ledger, log),
		Notifier:        notify.NewNotifier(f.notes, nil, time.Second, log),
		Analyzer:        f.analyzer,
		AnalysisTimeout: time.Second,
		Logger:          log,
	})
	return f
}

func jacket() entity.NewItem {
	return entity.NewItem{
		Title:     "Denim jacket",
		Price:     decimal.RequireFromString("45.00"),
		Size:      "M",
		Condition: entity.ConditionGood,
		Category:  "clothing",
	}
}

func photos(n int) []entity.ImageFile {
	files := make([]entity.ImageFile, n)
	for i := range files {
		files[i] = entity.ImageFile{Filename: "photo.JPG", ContentType: "image/jpeg", Content: []byte("img")}
	}
	return files
}

func (f *itemFixture) list(t *testing.T) *entity.Item {
	t.Helper()
	item, err := f.uc.CreateItem(context.Background(), sellerID, jacket(), photos(2))
	require.NoError(t, err)
	return item
}

func TestCreateItem_AwardsListingImpact(t *testing.T) {
	f := newItemFixture()

	item := f.list(t)

	require.Len(t, item.Images, 2)
	assert.Equal(t, 0, item.Images[0].Position)
	assert.Contains(t, item.Images[0].ImageURL, "item_images/"+sellerID+"/")
	assert.Equal(t, 2, f.storage.count())

	impact := eco.CalculateImpact("clothing")
	balance := f.ledger.Balance(sellerID)
	assert.Equal(t, impact.Points, balance.Points)
	assert.InDelta(t, impact.CO2SavedKg, balance.CO2Saved, 1e-9)
	assert.Equal(t, 1, f.ledger.EntriesFor(sellerID, eco.ActionItemListed))
}

func TestCreateItem_UnknownCategoryDefaultsToClothing(t *testing.T) {
	f := newItemFixture()
	input := jacket()
	input.Category = ""

	item, err := f.uc.CreateItem(context.Background(), sellerID, input, nil)
	require.NoError(t, err)
	assert.Equal(t, "clothing", item.Category)
}

func TestCreateItem_Validation(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()

	zero := jacket()
	zero.Price = decimal.Zero
	_, err := f.uc.CreateItem(ctx, sellerID, zero, nil)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	fractional := jacket()
	fractional.Price = decimal.RequireFromString("1.999")
	_, err = f.uc.CreateItem(ctx, sellerID, fractional, nil)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	badCondition := jacket()
	badCondition.Condition = "MINT"
	_, err = f.uc.CreateItem(ctx, sellerID, badCondition, nil)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	badCategory := jacket()
	badCategory.Category = "furniture"
	_, err = f.uc.CreateItem(ctx, sellerID, badCategory, nil)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	_, err = f.uc.CreateItem(ctx, sellerID, jacket(), photos(entity.MaxImages+1))
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	assert.Equal(t, 0, f.ledger.Balance(sellerID).Points)
}

func TestCreateItem_UploadFailureCleansUp(t *testing.T) {
	f := newItemFixture()
	f.storage.failAt = 1

	_, err := f.uc.CreateItem(context.Background(), sellerID, jacket(), photos(3))
	assert.True(t, apperr.Is(err, apperr.ErrExternal))
	assert.Equal(t, 0, f.storage.count())
	assert.Equal(t, 0, f.ledger.Balance(sellerID).Points)
}

func TestLikeItem(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()
	item := f.list(t)

	count, err := f.uc.LikeItem(ctx, buyerID, "bob", item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	notes := f.notes.For(sellerID)
	require.Len(t, notes, 1)
	assert.Equal(t, notify.TypeLike, notes[0].Type)
	assert.Equal(t, "bob liked your item: Denim jacket", notes[0].Message)

	_, err = f.uc.LikeItem(ctx, buyerID, "bob", item.ID)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
	assert.Len(t, f.notes.For(sellerID), 1)
}

func TestLikeItem_OwnItemDoesNotNotify(t *testing.T) {
	f := newItemFixture()
	item := f.list(t)

	_, err := f.uc.LikeItem(context.Background(), sellerID, "alice", item.ID)
	require.NoError(t, err)
	assert.Empty(t, f.notes.For(sellerID))
}

func TestUnlikeItem_NotLiked(t *testing.T) {
	f := newItemFixture()
	item := f.list(t)

	err := f.uc.UnlikeItem(context.Background(), buyerID, item.ID)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestUpdateItem_Rules(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()
	item := f.list(t)
	title := "Vintage denim jacket"

	_, err := f.uc.UpdateItem(ctx, buyerID, item.ID, entity.ItemUpdate{Title: &title})
	assert.True(t, apperr.Is(err, apperr.ErrForbidden))

	updated, err := f.uc.UpdateItem(ctx, sellerID, item.ID, entity.ItemUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	f.items.markSold(item.ID)
	_, err = f.uc.UpdateItem(ctx, sellerID, item.ID, entity.ItemUpdate{Title: &title})
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	err = f.uc.DeleteItem(ctx, sellerID, item.ID)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
}

func TestDeleteItem_RemovesImages(t *testing.T) {
	f := newItemFixture()
	item := f.list(t)

	require.NoError(t, f.uc.DeleteItem(context.Background(), sellerID, item.ID))
	assert.Equal(t, 0, f.storage.count())

	_, err := f.uc.GetItem(context.Background(), "", item.ID)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestAnalyzeItem(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()
	item := f.list(t)

	f.analyzer.result = &analysis.Result{Condition: "Excellent", Brand: "Levi's", Verified: true, Defects: []string{}}
	result, err := f.uc.AnalyzeItem(ctx, sellerID, item.ID)
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, []string{item.Images[0].ImageURL}, f.analyzer.urls)
	assert.Equal(t, "Levi's", f.items.analyses[item.ID].Brand)
}

func TestAnalyzeItem_FailureFallsBackToUnverified(t *testing.T) {
	f := newItemFixture()
	item := f.list(t)
	f.analyzer.err = errors.New("model offline")

	result, err := f.uc.AnalyzeItem(context.Background(), sellerID, item.ID)
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, "Unknown", result.Brand)
	assert.Same(t, result, f.items.analyses[item.ID])
}

func TestAnalyzeItem_RequiresImage(t *testing.T) {
	f := newItemFixture()
	item, err := f.uc.CreateItem(context.Background(), sellerID, jacket(), nil)
	require.NoError(t, err)

	_, err = f.uc.AnalyzeItem(context.Background(), sellerID, item.ID)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
	assert.Empty(t, f.analyzer.urls)
}

func TestAnalyzeItem_SellerOnly(t *testing.T) {
	f := newItemFixture()
	item := f.list(t)

	_, err := f.uc.AnalyzeItem(context.Background(), buyerID, item.ID)
	assert.True(t, apperr.Is(err, apperr.ErrForbidden))
	assert.Empty(t, f.analyzer.urls)
	assert.Nil(t, f.items.analyses[item.ID])
}

func TestReviews(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()
	item := f.list(t)

	_, err := f.uc.CreateReview(ctx, sellerID, item.ID, 5, "mine")
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	_, err = f.uc.CreateReview(ctx, buyerID, item.ID, 6, "too good")
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	review, err := f.uc.CreateReview(ctx, buyerID, item.ID, 4, "great fit")
	require.NoError(t, err)

	_, err = f.uc.CreateReview(ctx, buyerID, item.ID, 3, "again")
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	rating := 5
	_, err = f.uc.UpdateReview(ctx, sellerID, review.ID, &rating, nil)
	assert.True(t, apperr.Is(err, apperr.ErrForbidden))

	updated, err := f.uc.UpdateReview(ctx, buyerID, review.ID, &rating, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "great fit", updated.Comment)

	require.NoError(t, f.uc.DeleteReview(ctx, buyerID, review.ID))
	reviews, total, err := f.uc.ListReviews(ctx, item.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.Equal(t, int64(0), total)
}

func TestWishlist(t *testing.T) {
	f := newItemFixture()
	ctx := context.Background()
	item := f.list(t)

	entry, err := f.uc.AddToWishlist(ctx, buyerID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, entry.Item.ID)

	_, err = f.uc.AddToWishlist(ctx, buyerID, item.ID)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	_, err = f.uc.AddToWishlist(ctx, buyerID, "missing")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))

	require.NoError(t, f.uc.RemoveFromWishlist(ctx, buyerID, item.ID))
	assert.True(t, apperr.Is(f.uc.RemoveFromWishlist(ctx, buyerID, item.ID), apperr.ErrNotFound))
}
