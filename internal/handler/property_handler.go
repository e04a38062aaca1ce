package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/service"
)

// PropertyHandler exposes listings at /api/properties
type PropertyHandler struct {
	propertyService *service.PropertyService
}

func NewPropertyHandler(propertyService *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// Search godoc
// @Summary Search listings
// @Tags Properties
// @Produce json
// @Param city query string false "City"
// @Param property_type query string false "house, apartment, condo, land or commercial"
// @Param listing_type query string false "sale or rent"
// @Param status query string false "available, pending, sold or rented"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param min_bedrooms query int false "Minimum bedrooms"
// @Param agent_id query string false "Agent ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} model.PagedResponse
// @Router /properties [get]
func (h *PropertyHandler) Search(c *gin.Context) {
	var req model.PropertySearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.propertyService.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get godoc
// @Summary Get a listing with its media
// @Tags Properties
// @Produce json
// @Param id path string true "Property ID"
// @Success 200 {object} model.Property
// @Failure 404 {object} model.ErrorResponse
// @Router /properties/{id} [get]
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.propertyService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create godoc
// @Summary Publish a listing (agents)
// @Tags Properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreatePropertyRequest true "Listing"
// @Success 201 {object} model.Property
// @Router /properties [post]
func (h *PropertyHandler) Create(c *gin.Context) {
	var req model.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.propertyService.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update godoc
// @Summary Edit a listing (owner or admin)
// @Tags Properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Param body body model.UpdatePropertyRequest true "Fields to change"
// @Success 200 {object} model.Property
// @Router /properties/{id} [patch]
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.propertyService.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete godoc
// @Summary Remove a listing (owner or admin)
// @Tags Properties
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Success 200 {object} model.SuccessResponse
// @Router /properties/{id} [delete]
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.propertyService.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Property deleted"})
}

// UploadMedia godoc
// @Summary Upload images and videos for a listing
// @Description Up to 10 files per request; jpg, png, gif, webp, mp4, webm, mov; 50MB each.
// @Tags Properties
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Param files formData file true "Media files"
// @Success 201 {array} model.PropertyMedia
// @Failure 400 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Router /properties/{id}/media [post]
func (h *PropertyHandler) UploadMedia(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxMediaPerUpload*service.MaxMediaSize)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "INVALID_INPUT", Message: "Invalid or oversized form data"})
		return
	}

	media, err := h.propertyService.UploadMedia(c.Request.Context(), actor(c), id, form.File["files"])
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

// DeleteMedia godoc
// @Summary Remove one media item from a listing
// @Tags Properties
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Param mediaId path string true "Media ID"
// @Success 200 {object} model.SuccessResponse
// @Router /properties/{id}/media/{mediaId} [delete]
func (h *PropertyHandler) DeleteMedia(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	mediaID, ok := uuidParam(c, "mediaId")
	if !ok {
		return
	}
	if err := h.propertyService.DeleteMedia(c.Request.Context(), actor(c), id, mediaID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Media deleted"})
}
