package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homenest/homenest-api/internal/middleware"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/service"
)

// ConversationHandler exposes member messaging at /api/conversations
type ConversationHandler struct {
	messagingService *service.MessagingService
}

func NewConversationHandler(messagingService *service.MessagingService) *ConversationHandler {
	return &ConversationHandler{messagingService: messagingService}
}

// GetOrCreateDirect godoc
// @Summary Get or create a direct conversation
// @Description Finds the thread with the receiver about the given listing, creating it on first contact.
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.DirectConversationRequest true "Receiver and optional listing"
// @Success 200 {object} model.ConversationResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /conversations/direct [post]
func (h *ConversationHandler) GetOrCreateDirect(c *gin.Context) {
	var req model.DirectConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.messagingService.GetOrCreateDirect(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetConversations godoc
// @Summary List the caller's conversations
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.ConversationResponse
// @Router /conversations [get]
func (h *ConversationHandler) GetConversations(c *gin.Context) {
	conversations, err := h.messagingService.GetConversations(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// SendMessage godoc
// @Summary Send a message
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.SendMessageRequest true "Message"
// @Success 201 {object} model.Message
// @Router /conversations/{id}/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	convID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.messagingService.SendMessage(c.Request.Context(), middleware.CurrentUserID(c), convID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetMessages godoc
// @Summary List messages, newest first
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param before query string false "Cursor: message ID to get messages before"
// @Param limit query int false "Number of messages to return (default: 50)"
// @Success 200 {array} model.Message
// @Router /conversations/{id}/messages [get]
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	convID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}
	before, err := optionalUUID(req.Before)
	if err != nil {
		respondError(c, err)
		return
	}

	messages, err := h.messagingService.GetMessages(c.Request.Context(), middleware.CurrentUserID(c), convID, before, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// MarkAsRead godoc
// @Summary Mark a conversation as read
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id}/read [post]
func (h *ConversationHandler) MarkAsRead(c *gin.Context) {
	convID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.messagingService.MarkAsRead(c.Request.Context(), middleware.CurrentUserID(c), convID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Messages marked as read"})
}

// UploadAttachment godoc
// @Summary Upload a file to send in a conversation
// @Description Images, videos, pdf, zip or mp3 up to 25MB. Send the returned URL as file_url.
// @Tags Conversations
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} model.AttachmentResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /conversations/{id}/attachments [post]
func (h *ConversationHandler) UploadAttachment(c *gin.Context) {
	convID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxAttachmentSize+(1<<20))
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "INVALID_INPUT", Message: "A file of at most 25MB is required"})
		return
	}
	defer file.Close()

	att, err := h.messagingService.UploadAttachment(c.Request.Context(), middleware.CurrentUserID(c), convID, file, header)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}
