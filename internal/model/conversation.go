package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is a direct thread between two members, optionally about a listing
type Conversation struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	PropertyID *uuid.UUID `json:"property_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relations
	Members     []ConversationMember `json:"members,omitempty" gorm:"foreignKey:ConversationID"`
	LastMessage *Message             `json:"last_message,omitempty" gorm:"-"` // populated manually
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ConversationMember represents a user's membership in a conversation
type ConversationMember struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID  `json:"conversation_id" gorm:"type:uuid;uniqueIndex:idx_conv_user;not null"`
	UserID         uuid.UUID  `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_conv_user;not null"`
	JoinedAt       time.Time  `json:"joined_at"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (m *ConversationMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
