package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/model"
	"gorm.io/gorm"
)

// ConversationRepository handles database operations for Conversation
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation with its members
func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	return translateError(dbFrom(ctx, r.db).Create(conv).Error)
}

// FindByID finds a conversation by ID with members
func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := dbFrom(ctx, r.db).
		Preload("Members.User").
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &conv, nil
}

// FindDirect finds the existing conversation between two members about the
// same listing (or about no listing when propertyID is nil)
func (r *ConversationRepository) FindDirect(ctx context.Context, userID1, userID2 uuid.UUID, propertyID *uuid.UUID) (*model.Conversation, error) {
	query := dbFrom(ctx, r.db).
		Joins("JOIN conversation_members cm1 ON cm1.conversation_id = conversations.id").
		Joins("JOIN conversation_members cm2 ON cm2.conversation_id = conversations.id").
		Where("cm1.user_id = ? AND cm2.user_id = ?", userID1, userID2)
	if propertyID != nil {
		query = query.Where("conversations.property_id = ?", *propertyID)
	} else {
		query = query.Where("conversations.property_id IS NULL")
	}

	var conv model.Conversation
	if err := query.Preload("Members.User").First(&conv).Error; err != nil {
		return nil, translateError(err)
	}
	return &conv, nil
}

// GetUserConversations returns all conversations for a user, ordered by latest activity
func (r *ConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	conversations := []model.Conversation{}
	err := dbFrom(ctx, r.db).
		Joins("JOIN conversation_members ON conversation_members.conversation_id = conversations.id").
		Where("conversation_members.user_id = ?", userID).
		Preload("Members.User").
		Order("conversations.updated_at DESC").
		Find(&conversations).Error
	return conversations, translateError(err)
}

// IsMember checks if a user is a member of a conversation
func (r *ConversationRepository) IsMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, translateError(err)
}

// GetMemberIDs returns all member user IDs for a conversation
func (r *ConversationRepository) GetMemberIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	memberIDs := []uuid.UUID{}
	err := dbFrom(ctx, r.db).Model(&model.ConversationMember{}).
		Where("conversation_id = ?", conversationID).
		Pluck("user_id", &memberIDs).Error
	return memberIDs, translateError(err)
}

// TouchUpdatedAt bumps the updated_at timestamp (to sort by latest activity)
func (r *ConversationRepository) TouchUpdatedAt(ctx context.Context, conversationID uuid.UUID, at time.Time) error {
	return translateError(dbFrom(ctx, r.db).Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		UpdateColumn("updated_at", at).Error)
}

// UpdateLastRead updates the last_read_at timestamp for a member
func (r *ConversationRepository) UpdateLastRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	return translateError(dbFrom(ctx, r.db).Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("last_read_at", at).Error)
}
