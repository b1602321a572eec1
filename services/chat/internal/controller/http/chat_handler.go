package http

import (
	"net/http"

	"thriftgram/pkg/apperr"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/pagination"
	"thriftgram/services/chat/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatUseCase usecase.ChatUseCase
	logger      *logger.Logger
}

func NewChatHandler(chatUseCase usecase.ChatUseCase, logger *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
		logger:      logger,
	}
}

type StartConversationRequest struct {
	OtherUser string  `json:"other_user"`
	Item      *string `json:"item"`
}

type SendMessageRequest struct {
	Conversation string `json:"conversation" binding:"required"`
	Content      string `json:"content" binding:"required"`
}

func (h *ChatHandler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

// ListConversations godoc
// @Summary      Conversations of the current user
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /conversations [get]
func (h *ChatHandler) ListConversations(c *gin.Context) {
	limit, offset := pagination.FromQuery(c)

	convs, total, err := h.chatUseCase.ListConversations(c.Request.Context(), c.GetString("user_id"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs, "count": total, "limit": limit, "offset": offset})
}

// StartConversation godoc
// @Summary      Open a conversation
// @Description  Returns the existing conversation with the user (200) or creates a new one (201)
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body StartConversationRequest true "Other participant and optional item"
// @Success      200  {object}  entity.Conversation
// @Success      201  {object}  entity.Conversation
// @Failure      400  {object}  map[string]string
// @Router       /conversations [post]
func (h *ChatHandler) StartConversation(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, created, err := h.chatUseCase.StartConversation(c.Request.Context(), c.GetString("user_id"), req.OtherUser, req.Item)
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, conv)
}

// Messages godoc
// @Summary      Messages in a conversation
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string true  "Conversation ID"
// @Param        limit  query int    false "Page size"
// @Param        offset query int    false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /conversations/{id}/messages [get]
func (h *ChatHandler) Messages(c *gin.Context) {
	limit, offset := pagination.FromQuery(c)

	msgs, total, err := h.chatUseCase.Messages(c.Request.Context(), c.GetString("user_id"), c.Param("id"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": total, "limit": limit, "offset": offset})
}

// SendMessage godoc
// @Summary      Send a message
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SendMessageRequest true "Conversation and content"
// @Success      201  {object}  entity.Message
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chatUseCase.SendMessage(c.Request.Context(), c.GetString("user_id"), req.Conversation, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// MarkRead godoc
// @Summary      Mark a received message as read
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Message ID"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /messages/{id}/read [patch]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	if err := h.chatUseCase.MarkRead(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "marked as read"})
}
