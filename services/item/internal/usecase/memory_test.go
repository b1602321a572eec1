package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"

	"thriftgram/pkg/analysis"
	"thriftgram/pkg/apperr"
	"thriftgram/services/item/internal/entity"
)

type memoryItems struct {
	mu       sync.Mutex
	items    map[string]*entity.Item
	likes    map[string]bool
	analyses map[string]*analysis.Result
	seq      int
}

func newMemoryItems() *memoryItems {
	return &memoryItems{
		items:    map[string]*entity.Item{},
		likes:    map[string]bool{},
		analyses: map[string]*analysis.Result{},
	}
}

func (r *memoryItems) Create(ctx context.Context, item *entity.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if item.ID == "" {
		item.ID = fmt.Sprintf("item-%d", r.seq)
	}
	stored := *item
	r.items[item.ID] = &stored
	return nil
}

func (r *memoryItems) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, apperr.NotFound("item not found")
	}
	out := *item
	out.Images = append([]entity.ItemImage(nil), item.Images...)
	return &out, nil
}

func (r *memoryItems) List(ctx context.Context, filter entity.ItemFilter) ([]*entity.Item, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Item
	for _, item := range r.items {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.Available != nil && item.IsSold == *filter.Available {
			continue
		}
		copied := *item
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *memoryItems) Update(ctx context.Context, item *entity.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.ID]
	if !ok || stored.IsSold {
		return apperr.Conflict("sold items cannot be edited")
	}
	stored.Title = item.Title
	stored.Description = item.Description
	stored.Price = item.Price
	stored.Size = item.Size
	stored.Condition = item.Condition
	stored.Category = item.Category
	return nil
}

func (r *memoryItems) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[id]; !ok || stored.IsSold {
		return apperr.Conflict("sold items cannot be deleted")
	}
	delete(r.items, id)
	return nil
}

func (r *memoryItems) SetAnalysis(ctx context.Context, id string, result *analysis.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses[id] = result
	if item, ok := r.items[id]; ok {
		item.AIAnalysis = result
	}
	return nil
}

func (r *memoryItems) CreateLike(ctx context.Context, userID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID + "|" + itemID
	if r.likes[key] {
		return apperr.Validation("you have already liked this item")
	}
	r.likes[key] = true
	return nil
}

func (r *memoryItems) DeleteLike(ctx context.Context, userID, itemID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID + "|" + itemID
	existed := r.likes[key]
	delete(r.likes, key)
	return existed, nil
}

func (r *memoryItems) LikeStats(ctx context.Context, viewerID string, itemIDs []string) (map[string]int64, map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	liked := map[string]bool{}
	for _, id := range itemIDs {
		for key := range r.likes {
			if len(key) > len(id) && key[len(key)-len(id)-1:] == "|"+id {
				counts[id]++
			}
		}
		if viewerID != "" && r.likes[viewerID+"|"+id] {
			liked[id] = true
		}
	}
	return counts, liked, nil
}

func (r *memoryItems) markSold(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id].IsSold = true
}

type memoryReviews struct {
	mu      sync.Mutex
	reviews map[string]*entity.Review
	seq     int
}

func newMemoryReviews() *memoryReviews {
	return &memoryReviews{reviews: map[string]*entity.Review{}}
}

func (r *memoryReviews) Create(ctx context.Context, review *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.ItemID == review.ItemID && existing.ReviewerID == review.ReviewerID {
			return apperr.Conflict("you have already reviewed this item")
		}
	}
	r.seq++
	review.ID = fmt.Sprintf("review-%d", r.seq)
	stored := *review
	r.reviews[review.ID] = &stored
	return nil
}

func (r *memoryReviews) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.reviews[id]
	if !ok {
		return nil, apperr.NotFound("review not found")
	}
	out := *review
	return &out, nil
}

func (r *memoryReviews) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Review
	for _, review := range r.reviews {
		if review.ItemID == itemID {
			copied := *review
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memoryReviews) Update(ctx context.Context, id string, rating int, comment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[id].Rating = rating
	r.reviews[id].Comment = comment
	return nil
}

func (r *memoryReviews) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reviews, id)
	return nil
}

type memoryWishlists struct {
	mu      sync.Mutex
	entries map[string]bool
}

func (r *memoryWishlists) List(ctx context.Context, userID string, limit, offset int) ([]*entity.WishlistEntry, int64, error) {
	return nil, 0, nil
}

func (r *memoryWishlists) Add(ctx context.Context, userID, itemID string) (*entity.WishlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = map[string]bool{}
	}
	key := userID + "|" + itemID
	if r.entries[key] {
		return nil, apperr.Conflict("item is already in your wishlist")
	}
	r.entries[key] = true
	return &entity.WishlistEntry{ID: key}, nil
}

func (r *memoryWishlists) Remove(ctx context.Context, userID, itemID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID + "|" + itemID
	existed := r.entries[key]
	delete(r.entries, key)
	return existed, nil
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string]bool
	failAt  int
	uploads int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string]bool{}, failAt: -1}
}

func (s *memoryStorage) UploadFile(ctx context.Context, key string, file io.Reader, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploads == s.failAt {
		return "", fmt.Errorf("storage unavailable")
	}
	s.uploads++
	s.objects[key] = true
	return "https://cdn.test/" + key, nil
}

func (s *memoryStorage) DeleteFile(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStorage) KeyFromURL(url string) (string, bool) {
	const prefix = "https://cdn.test/"
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return "", false
	}
	return url[len(prefix):], true
}

func (s *memoryStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type stubAnalyzer struct {
	result *analysis.Result
	err    error
	urls   []string
}

func (a *stubAnalyzer) Analyze(ctx context.Context, imageURL string) (*analysis.Result, error) {
	a.urls = append(a.urls, imageURL)
	return a.result, a.err
}
