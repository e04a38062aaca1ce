package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/service"
)

// ScheduleHandler exposes property viewing appointments at /api/schedules
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// Create godoc
// @Summary Book a property viewing
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateScheduleRequest true "Appointment"
// @Success 201 {object} model.AppointmentDetail
// @Failure 409 {object} model.ErrorResponse "Agent already booked within an hour"
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req model.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	detail, err := h.scheduleService.CreateAppointment(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// Availability godoc
// @Summary Check whether an agent is free at a time
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param agentId query string true "Agent ID"
// @Param scheduleTime query string true "RFC 3339 time"
// @Param excludeId query string false "Appointment to ignore"
// @Success 200 {object} model.SlotAvailabilityResponse
// @Router /schedules/availability [get]
func (h *ScheduleHandler) Availability(c *gin.Context) {
	var req model.SlotAvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}
	agentID, err := optionalUUID(req.AgentID)
	if err != nil {
		respondError(c, err)
		return
	}
	excludeID, err := optionalUUID(req.ExcludeID)
	if err != nil {
		respondError(c, err)
		return
	}

	available, err := h.scheduleService.IsTimeSlotAvailable(c.Request.Context(), *agentID, req.ScheduleTime, excludeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SlotAvailabilityResponse{Available: available})
}

// List godoc
// @Summary List appointments
// @Description Filters by agent, client or property. Without a filter the caller's own appointments are returned (all of them for admins).
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param agentId query string false "Agent ID"
// @Param clientId query string false "Client ID"
// @Param propertyId query string false "Property ID"
// @Param status query string false "scheduled, completed or cancelled"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} model.PagedResponse
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var req model.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var status *model.AppointmentStatus
	if req.Status != "" {
		s := model.AppointmentStatus(req.Status)
		status = &s
	}

	ctx := c.Request.Context()
	me := actor(c)
	var (
		items []model.AppointmentDetail
		total int64
		err   error
	)
	switch {
	case req.PropertyID != "":
		id, _ := optionalUUID(req.PropertyID)
		items, total, err = h.scheduleService.ListForProperty(ctx, me, *id, status, req.Page, req.PageSize)
	case req.AgentID != "":
		id, _ := optionalUUID(req.AgentID)
		items, total, err = h.scheduleService.ListForAgent(ctx, me, *id, status, req.Page, req.PageSize)
	case req.ClientID != "":
		id, _ := optionalUUID(req.ClientID)
		items, total, err = h.scheduleService.ListForClient(ctx, me, *id, status, req.Page, req.PageSize)
	case me.IsAdmin():
		items, total, err = h.scheduleService.ListAll(ctx, me, status, req.Page, req.PageSize)
	case me.IsAgent():
		items, total, err = h.scheduleService.ListForAgent(ctx, me, me.ID, status, req.Page, req.PageSize)
	default:
		items, total, err = h.scheduleService.ListForClient(ctx, me, me.ID, status, req.Page, req.PageSize)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.PagedResponse{Items: items, Total: total, Page: req.Page, PageSize: req.PageSize})
}

// Get godoc
// @Summary Get an appointment
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} model.AppointmentDetail
// @Failure 404 {object} model.ErrorResponse
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.scheduleService.GetAppointment(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update godoc
// @Summary Reschedule or edit an appointment
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param body body model.UpdateScheduleRequest true "Fields to change"
// @Success 200 {object} model.AppointmentDetail
// @Failure 409 {object} model.ErrorResponse
// @Router /schedules/{id} [patch]
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	detail, err := h.scheduleService.UpdateAppointment(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} model.AppointmentDetail
// @Router /schedules/{id}/cancel [post]
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.scheduleService.Cancel(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Complete godoc
// @Summary Mark an appointment as completed
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} model.AppointmentDetail
// @Router /schedules/{id}/complete [post]
func (h *ScheduleHandler) Complete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.scheduleService.Complete(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Delete godoc
// @Summary Delete an appointment (admin)
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} model.SuccessResponse
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.scheduleService.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Appointment deleted"})
}
