package http

import (
	"net/http"

	"thriftgram/pkg/pagination"

	"github.com/gin-gonic/gin"
)

// GetUser godoc
// @Summary      Public profile by id or username
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID or username"
// @Success      200  {object}  entity.User
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *AuthHandler) GetUser(c *gin.Context) {
	user, err := h.authUseCase.GetProfile(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Follow godoc
// @Summary      Follow a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID or username"
// @Success      201  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /users/{id}/follow [post]
func (h *AuthHandler) Follow(c *gin.Context) {
	if err := h.authUseCase.Follow(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Followed successfully", "following": true})
}

// Unfollow godoc
// @Summary      Unfollow a user
// @Tags         users
// @Security     BearerAuth
// @Param        id path string true "User ID or username"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/follow [delete]
func (h *AuthHandler) Unfollow(c *gin.Context) {
	if err := h.authUseCase.Unfollow(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed successfully", "following": false})
}

// Followers godoc
// @Summary      List followers
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID or username"
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /users/{id}/followers [get]
func (h *AuthHandler) Followers(c *gin.Context) {
	limit, offset := pagination.FromQuery(c)

	users, err := h.authUseCase.Followers(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// Following godoc
// @Summary      List followed users
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID or username"
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /users/{id}/following [get]
func (h *AuthHandler) Following(c *gin.Context) {
	limit, offset := pagination.FromQuery(c)

	users, err := h.authUseCase.Following(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// EcoHistory godoc
// @Summary      Eco points history of a user
// @Tags         eco
// @Produce      json
// @Param        id path string true "User ID or username"
// @Success      200  {object}  map[string]interface{}
// @Router       /users/{id}/eco-history [get]
func (h *AuthHandler) EcoHistory(c *gin.Context) {
	h.ecoHistory(c, c.Param("id"))
}

// MyEcoHistory godoc
// @Summary      Eco points history of the current user
// @Tags         eco
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /eco-points-history [get]
func (h *AuthHandler) MyEcoHistory(c *gin.Context) {
	h.ecoHistory(c, c.GetString("user_id"))
}

func (h *AuthHandler) ecoHistory(c *gin.Context, target string) {
	limit, offset := pagination.FromQuery(c)

	entries, total, err := h.authUseCase.EcoHistory(c.Request.Context(), target, limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": entries, "count": total})
}

// Leaderboard godoc
// @Summary      Top users by eco points
// @Tags         eco
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /leaderboard [get]
func (h *AuthHandler) Leaderboard(c *gin.Context) {
	entries, err := h.authUseCase.Leaderboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
