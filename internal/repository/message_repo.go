package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/model"
	"gorm.io/gorm"
)

// MessageRepository handles database operations for Message
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	return translateError(dbFrom(ctx, r.db).Create(msg).Error)
}

// FindByID finds a message by ID
func (r *MessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := dbFrom(ctx, r.db).
		Preload("Sender").
		Where("id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &msg, nil
}

// GetConversationMessages returns paginated messages for a conversation (cursor-based)
func (r *MessageRepository) GetConversationMessages(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]model.Message, error) {
	db := dbFrom(ctx, r.db)
	query := db.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit)

	// Cursor-based pagination: get messages before a specific message
	if before != nil {
		var beforeMsg model.Message
		if err := db.Select("created_at").Where("id = ?", *before).First(&beforeMsg).Error; err != nil {
			return nil, translateError(err)
		}
		query = query.Where("created_at < ?", beforeMsg.CreatedAt)
	}

	messages := []model.Message{}
	err := query.Find(&messages).Error
	return messages, translateError(err)
}

// GetLastMessage returns the most recent message in a conversation
func (r *MessageRepository) GetLastMessage(ctx context.Context, conversationID uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := dbFrom(ctx, r.db).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&msg).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &msg, nil
}

// CountUnread counts messages from others newer than the member's last read mark
func (r *MessageRepository) CountUnread(ctx context.Context, conversationID, userID uuid.UUID, lastRead *time.Time) (int64, error) {
	query := dbFrom(ctx, r.db).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, userID)
	if lastRead != nil {
		query = query.Where("created_at > ?", *lastRead)
	}

	var count int64
	err := query.Count(&count).Error
	return count, translateError(err)
}
