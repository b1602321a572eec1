package http

import (
	"io"
	"net/http"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/pagination"
	"thriftgram/services/order/internal/entity"
	"thriftgram/services/order/internal/usecase"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

type OrderHandler struct {
	orderUseCase usecase.OrderUseCase
	logger       *logger.Logger
}

func NewOrderHandler(orderUseCase usecase.OrderUseCase, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		logger:       logger,
	}
}

type CheckoutRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

type UpdateStatusRequest struct {
	Status entity.Status `json:"status" binding:"required"`
}

func (h *OrderHandler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

// Checkout godoc
// @Summary      Start checkout for an item
// @Description  Opens a hosted checkout session and records a pending order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CheckoutRequest true "Item to buy"
// @Success      201  {object}  entity.Checkout
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkout, err := h.orderUseCase.Checkout(c.Request.Context(), c.GetString("user_id"), req.ItemID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, checkout)
}

// Webhook godoc
// @Summary      Payment processor webhook
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Webhook signature"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /webhook [post]
func (h *OrderHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	if err := h.orderUseCase.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ListOrders godoc
// @Summary      Orders of the current user
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        role   query string false "buyer (default) or seller"
// @Param        limit  query int    false "Page size"
// @Param        offset query int    false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, offset := pagination.FromQuery(c)

	orders, total, err := h.orderUseCase.ListOrders(c.Request.Context(), c.GetString("user_id"), entity.Role(c.Query("role")), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": total, "limit": limit, "offset": offset})
}

// GetOrder godoc
// @Summary      Order details
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200  {object}  entity.Order
// @Failure      404  {object}  map[string]string
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderUseCase.GetOrder(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrder godoc
// @Summary      Update order status
// @Description  Sellers move orders forward: PAID to SHIPPED, SHIPPED to DELIVERED, PENDING to CANCELLED
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string              true "Order ID"
// @Param        request body UpdateStatusRequest true "New status"
// @Success      200  {object}  entity.Order
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /orders/{id} [patch]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderUseCase.UpdateStatus(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
