package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus is the lifecycle state of a viewing.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// Appointment is a property viewing between an agent and a client.
// No two non-cancelled appointments of one agent may lie within the slot window of each other.
type Appointment struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	ExternalID  uuid.UUID         `json:"external_id" gorm:"type:uuid;uniqueIndex;not null"`
	PropertyID  uuid.UUID         `json:"property_id" gorm:"type:uuid;index;not null"`
	AgentID     uuid.UUID         `json:"agent_id" gorm:"type:uuid;index:idx_appt_agent_time;not null"`
	ClientID    uuid.UUID         `json:"client_id" gorm:"type:uuid;index;not null"`
	ScheduledAt time.Time         `json:"scheduled_at" gorm:"index:idx_appt_agent_time;not null"`
	Status      AppointmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'scheduled'"`
	Notes       *string           `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (Appointment) TableName() string { return "schedule_properties" }

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.ExternalID == uuid.Nil {
		a.ExternalID = uuid.New()
	}
	return nil
}

// AppointmentDetail joins display fields of the property and both parties.
type AppointmentDetail struct {
	ID              uuid.UUID         `json:"id"`
	ExternalID      uuid.UUID         `json:"external_id"`
	PropertyID      uuid.UUID         `json:"property_id"`
	PropertyTitle   string            `json:"property_title"`
	PropertyAddress string            `json:"property_address"`
	AgentID         uuid.UUID         `json:"agent_id"`
	AgentName       string            `json:"agent_name"`
	AgentEmail      string            `json:"agent_email"`
	AgentPhone      string            `json:"agent_phone"`
	ClientID        uuid.UUID         `json:"client_id"`
	ClientName      string            `json:"client_name"`
	ClientEmail     string            `json:"client_email"`
	ClientPhone     string            `json:"client_phone"`
	ScheduledAt     time.Time         `json:"scheduled_at"`
	Status          AppointmentStatus `json:"status"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
