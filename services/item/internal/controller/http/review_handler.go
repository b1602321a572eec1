package http

import (
	"net/http"

	"thriftgram/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type CreateReviewRequest struct {
	Item    string `json:"item" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type WishlistRequest struct {
	Item string `json:"item" binding:"required"`
}

// ListReviews godoc
// @Summary      Reviews of an item
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Item ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /items/{id}/reviews [get]
func (h *ItemHandler) ListReviews(c *gin.Context) {
	limit, offset := pagination.FromQuery(c)

	reviews, total, err := h.itemUseCase.ListReviews(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": total})
}

// CreateReview godoc
// @Summary      Review an item
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateReviewRequest true "Review"
// @Success      201  {object}  entity.Review
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /reviews [post]
func (h *ItemHandler) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.itemUseCase.CreateReview(c.Request.Context(), c.GetString("user_id"), req.Item, req.Rating, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// UpdateReview godoc
// @Summary      Edit a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string              true "Review ID"
// @Param        request body UpdateReviewRequest true "Fields to change"
// @Success      200  {object}  entity.Review
// @Failure      403  {object}  map[string]string
// @Router       /reviews/{id} [put]
func (h *ItemHandler) UpdateReview(c *gin.Context) {
	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.itemUseCase.UpdateReview(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// DeleteReview godoc
// @Summary      Delete a review
// @Tags         reviews
// @Security     BearerAuth
// @Param        id path string true "Review ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /reviews/{id} [delete]
func (h *ItemHandler) DeleteReview(c *gin.Context) {
	if err := h.itemUseCase.DeleteReview(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Wishlist godoc
// @Summary      Current user's wishlist
// @Tags         wishlist
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /wishlist [get]
func (h *ItemHandler) Wishlist(c *gin.Context) {
	limit, offset := pagination.FromQuery(c)

	entries, total, err := h.itemUseCase.Wishlist(c.Request.Context(), c.GetString("user_id"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wishlist": entries, "count": total})
}

// AddToWishlist godoc
// @Summary      Save an item
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body WishlistRequest true "Item"
// @Success      201  {object}  entity.WishlistEntry
// @Failure      409  {object}  map[string]string
// @Router       /wishlist [post]
func (h *ItemHandler) AddToWishlist(c *gin.Context) {
	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.itemUseCase.AddToWishlist(c.Request.Context(), c.GetString("user_id"), req.Item)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// RemoveFromWishlist godoc
// @Summary      Unsave an item
// @Tags         wishlist
// @Security     BearerAuth
// @Param        item_id path string true "Item ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /wishlist/{item_id} [delete]
func (h *ItemHandler) RemoveFromWishlist(c *gin.Context) {
	if err := h.itemUseCase.RemoveFromWishlist(c.Request.Context(), c.GetString("user_id"), c.Param("item_id")); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
