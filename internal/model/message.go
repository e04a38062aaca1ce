package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a single entry in a conversation
type Message struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;index;not null"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;index;not null"`
	Content        string    `json:"content" gorm:"type:text"`
	FileURL        string    `json:"file_url,omitempty" gorm:"size:500"`
	FileName       string    `json:"file_name,omitempty" gorm:"size:255"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`

	// Relations
	Sender *User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
