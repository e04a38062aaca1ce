package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/service"
)

// AdminHandler backs the administrative portal at /api/admin
type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers godoc
// @Summary List members
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "agent, client or admin"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} model.PagedResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var req model.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}
	page, err := h.adminService.ListUsers(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SetUserActive godoc
// @Summary Activate or deactivate a member
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body model.SetUserActiveRequest true "New state"
// @Success 200 {object} model.SuccessResponse
// @Router /admin/users/{id}/active [put]
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.adminService.SetUserActive(c.Request.Context(), actor(c), id, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Account updated"})
}

// DeleteProperty godoc
// @Summary Remove any listing
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Success 200 {object} model.SuccessResponse
// @Router /admin/properties/{id} [delete]
func (h *AdminHandler) DeleteProperty(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteProperty(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Property deleted"})
}

// PurgeOTP godoc
// @Summary Delete every verification code of an email address
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param email path string true "Email"
// @Success 200 {object} model.SuccessResponse
// @Router /admin/otp/{email} [delete]
func (h *AdminHandler) PurgeOTP(c *gin.Context) {
	n, err := h.adminService.PurgeOTP(c.Request.Context(), actor(c), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Codes deleted", Data: gin.H{"deleted": n}})
}

// Stats godoc
// @Summary Platform counters
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.PlatformStats
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
