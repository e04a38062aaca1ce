package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/service"
	"github.com/homenest/homenest-api/internal/ws"
	"github.com/homenest/homenest-api/pkg/auth"
	"github.com/homenest/homenest-api/pkg/logger"
	"go.uber.org/zap"
)

// WSHandler upgrades authenticated members to a websocket and handles the
// events they send
type WSHandler struct {
	hub              *ws.Hub
	messagingService *service.MessagingService
	jwtManager       *auth.JWTManager
	blacklist        *auth.Blacklist
	upgrader         websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, messagingService *service.MessagingService, jwtManager *auth.JWTManager, blacklist *auth.Blacklist, origins []string) *WSHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &WSHandler{
		hub:              hub,
		messagingService: messagingService,
		jwtManager:       jwtManager,
		blacklist:        blacklist,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// HandleWebSocket godoc
// @Summary Open the realtime event stream
// @Description Connect with ws://host/ws?token=<jwt>. Browsers cannot set headers on websocket requests.
// @Tags Realtime
// @Param token query string true "JWT"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	claims, err := h.jwtManager.ValidateToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "UNAUTHORIZED", Message: "Invalid or expired token"})
		return
	}
	revoked, err := h.blacklist.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil || revoked {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "UNAUTHORIZED", Message: "Token has been revoked"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "WS upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID, claims.Name)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleEvent)
}

type conversationPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Content        string    `json:"content"`
	FileURL        string    `json:"file_url"`
	FileName       string    `json:"file_name"`
}

func (h *WSHandler) handleEvent(client *ws.Client, event model.WSEvent) {
	raw, _ := json.Marshal(event.Payload)
	var payload conversationPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ConversationID == uuid.Nil {
		logger.Debug(context.Background(), "Ignoring WS event without conversation", zap.String("type", event.Type))
		return
	}
	ctx := context.Background()

	switch event.Type {
	case model.WSEventNewMessage:
		// the service fans the stored message out to the other members
		_, err := h.messagingService.SendMessage(ctx, client.UserID, payload.ConversationID, model.SendMessageRequest{
			Content:  payload.Content,
			FileURL:  payload.FileURL,
			FileName: payload.FileName,
		})
		if err != nil {
			logger.Warn(ctx, "WS message rejected", zap.String("user_id", client.UserID.String()), zap.Error(err))
		}

	case model.WSEventTyping, model.WSEventStopTyping:
		memberIDs, err := h.messagingService.MemberIDs(ctx, client.UserID, payload.ConversationID)
		if err != nil {
			return
		}
		typing := &model.WSEvent{
			Type: event.Type,
			Payload: model.TypingEvent{
				ConversationID: payload.ConversationID,
				UserID:         client.UserID,
				Name:           client.Name,
			},
		}
		h.hub.SendToUsers(others(memberIDs, client.UserID), typing)

	case model.WSEventMessageRead:
		if err := h.messagingService.MarkAsRead(ctx, client.UserID, payload.ConversationID); err != nil {
			logger.Debug(ctx, "WS read receipt rejected", zap.Error(err))
		}

	default:
		logger.Debug(ctx, "Unknown WS event type", zap.String("type", event.Type))
	}
}

func others(ids []uuid.UUID, self uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
