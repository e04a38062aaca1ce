package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPRecord is a one-time passcode issued to an email address.
// At most one record per email is valid (unused and unexpired) at a time.
type OTPRecord struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string     `json:"email" gorm:"size:255;not null;index:idx_otp_email_created"`
	Code      string     `json:"-" gorm:"size:10;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	IsUsed    bool       `json:"is_used" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"` // set on verify or when superseded
	CreatedAt time.Time  `json:"created_at" gorm:"index:idx_otp_email_created"`
}

func (OTPRecord) TableName() string { return "otp_records" }

func (o *OTPRecord) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// IsExpired checks the record against now.
func (o *OTPRecord) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// IsValid reports whether the record can still be verified.
func (o *OTPRecord) IsValid(now time.Time) bool {
	return !o.IsUsed && !o.IsExpired(now)
}
