package http

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/pagination"
	"thriftgram/services/item/internal/entity"
	"thriftgram/services/item/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxImageSize = 10 << 20

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

type ItemHandler struct {
	itemUseCase usecase.ItemUseCase
	logger      *logger.Logger
}

func NewItemHandler(itemUseCase usecase.ItemUseCase, logger *logger.Logger) *ItemHandler {
	return &ItemHandler{
		itemUseCase: itemUseCase,
		logger:      logger,
	}
}

func (h *ItemHandler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

// ListItems godoc
// @Summary      Browse listings
// @Tags         items
// @Produce      json
// @Param        q               query string false "Search in title and description"
// @Param        seller_username query string false "Seller username"
// @Param        condition       query string false "NEW, LIKE_NEW, GOOD or FAIR"
// @Param        category        query string false "clothing, shoes or accessories"
// @Param        min_price       query number false "Minimum price"
// @Param        max_price       query number false "Maximum price"
// @Param        available       query bool   false "Only unsold (true) or only sold (false)"
// @Param        limit           query int    false "Page size"
// @Param        offset          query int    false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /items [get]
func (h *ItemHandler) ListItems(c *gin.Context) {
	filter := entity.ItemFilter{
		Query:          c.Query("q"),
		SellerUsername: c.Query("seller_username"),
		Condition:      entity.Condition(strings.ToUpper(c.Query("condition"))),
		Category:       strings.ToLower(c.Query("category")),
	}
	filter.Limit, filter.Offset = pagination.FromQuery(c)

	for param, dst := range map[string]**decimal.Decimal{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
			return
		}
		*dst = &v
	}

	if raw := c.Query("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid available flag"})
			return
		}
		filter.Available = &v
	}

	items, total, err := h.itemUseCase.ListItems(c.Request.Context(), c.GetString("user_id"), filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": total, "limit": filter.Limit, "offset": filter.Offset})
}

// GetItem godoc
// @Summary      Item details
// @Tags         items
// @Produce      json
// @Param        id path string true "Item ID"
// @Success      200  {object}  entity.Item
// @Failure      404  {object}  map[string]string
// @Router       /items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.itemUseCase.GetItem(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// CreateItem godoc
// @Summary      List an item for sale
// @Tags         items
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title       formData string true  "Title"
// @Param        description formData string false "Description"
// @Param        price       formData number true  "Price"
// @Param        size        formData string false "Size"
// @Param        condition   formData string true  "NEW, LIKE_NEW, GOOD or FAIR"
// @Param        category    formData string false "clothing, shoes or accessories"
// @Param        images      formData file   false "Up to 10 images"
// @Success      201  {object}  entity.Item
// @Failure      400  {object}  map[string]string
// @Router       /items [post]
func (h *ItemHandler) CreateItem(c *gin.Context) {
	price, err := decimal.NewFromString(c.PostForm("price"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid price is required"})
		return
	}

	input := entity.NewItem{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Price:       price,
		Size:        c.PostForm("size"),
		Condition:   entity.Condition(strings.ToUpper(c.PostForm("condition"))),
		Category:    c.PostForm("category"),
	}

	images, ok := h.readImages(c)
	if !ok {
		return
	}

	item, err := h.itemUseCase.CreateItem(c.Request.Context(), c.GetString("user_id"), input, images)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) readImages(c *gin.Context) ([]entity.ImageFile, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return nil, false
	}

	headers := form.File["images"]
	if len(headers) > entity.MaxImages {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum 10 images allowed per item"})
		return nil, false
	}

	images := make([]entity.ImageFile, 0, len(headers))
	for _, fh := range headers {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedImageExts[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format. Only jpg, jpeg, png, gif, webp are allowed"})
			return nil, false
		}
		if fh.Size > maxImageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Each image must be at most 10MB"})
			return nil, false
		}

		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to process file"})
			return nil, false
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to process file"})
			return nil, false
		}

		images = append(images, entity.ImageFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
		})
	}
	return images, true
}

// UpdateItem godoc
// @Summary      Edit a listing
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string            true "Item ID"
// @Param        request body entity.ItemUpdate true "Fields to change"
// @Success      200  {object}  entity.Item
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /items/{id} [put]
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	var req entity.ItemUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemUseCase.UpdateItem(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteItem godoc
// @Summary      Remove a listing
// @Tags         items
// @Security     BearerAuth
// @Param        id path string true "Item ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if err := h.itemUseCase.DeleteItem(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AnalyzeItem godoc
// @Summary      Run image analysis on a listing
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Item ID"
// @Success      200  {object}  analysis.Result
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /items/{id}/analyze [post]
func (h *ItemHandler) AnalyzeItem(c *gin.Context) {
	result, err := h.itemUseCase.AnalyzeItem(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LikeItem godoc
// @Summary      Like an item
// @Tags         likes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Item ID"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /items/{id}/like [post]
func (h *ItemHandler) LikeItem(c *gin.Context) {
	count, err := h.itemUseCase.LikeItem(c.Request.Context(), c.GetString("user_id"), c.GetString("username"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Item liked", "liked": true, "likes_count": count})
}

// UnlikeItem godoc
// @Summary      Remove a like
// @Tags         likes
// @Security     BearerAuth
// @Param        id path string true "Item ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /items/{id}/like [delete]
func (h *ItemHandler) UnlikeItem(c *gin.Context) {
	if err := h.itemUseCase.UnlikeItem(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
