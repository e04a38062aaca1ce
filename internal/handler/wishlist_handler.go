package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/service"
)

// WishlistHandler exposes a client's saved listings at /api/wishlist
type WishlistHandler struct {
	wishlistService *service.WishlistService
}

func NewWishlistHandler(wishlistService *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

// List godoc
// @Summary List saved listings
// @Tags Wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.WishlistItem
// @Router /wishlist [get]
func (h *WishlistHandler) List(c *gin.Context) {
	items, err := h.wishlistService.List(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Add godoc
// @Summary Save a listing
// @Tags Wishlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.AddWishlistRequest true "Listing to save"
// @Success 200 {object} model.SuccessResponse
// @Router /wishlist [post]
func (h *WishlistHandler) Add(c *gin.Context) {
	var req model.AddWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.wishlistService.Add(c.Request.Context(), actor(c), req.PropertyID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Saved to wishlist"})
}

// Remove godoc
// @Summary Unsave a listing
// @Tags Wishlist
// @Produce json
// @Security BearerAuth
// @Param propertyId path string true "Property ID"
// @Success 200 {object} model.SuccessResponse
// @Router /wishlist/{propertyId} [delete]
func (h *WishlistHandler) Remove(c *gin.Context) {
	propertyID, ok := uuidParam(c, "propertyId")
	if !ok {
		return
	}
	if err := h.wishlistService.Remove(c.Request.Context(), actor(c), propertyID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Removed from wishlist"})
}
