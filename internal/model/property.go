package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyType string

const (
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeCondo      PropertyType = "condo"
	PropertyTypeLand       PropertyType = "land"
	PropertyTypeCommercial PropertyType = "commercial"
)

type ListingType string

const (
	ListingTypeSale ListingType = "sale"
	ListingTypeRent ListingType = "rent"
)

type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusPending   PropertyStatus = "pending"
	PropertyStatusSold      PropertyStatus = "sold"
	PropertyStatusRented    PropertyStatus = "rented"
)

// Property is a listing owned by an agent
type Property struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	AgentID      uuid.UUID      `json:"agent_id" gorm:"type:uuid;index;not null"`
	Title        string         `json:"title" gorm:"size:200;not null"`
	Description  string         `json:"description" gorm:"type:text"`
	PropertyType PropertyType   `json:"property_type" gorm:"type:varchar(20);not null"`
	ListingType  ListingType    `json:"listing_type" gorm:"type:varchar(10);not null"`
	Price        float64        `json:"price" gorm:"not null"`
	Address      string         `json:"address" gorm:"size:300;not null"`
	City         string         `json:"city" gorm:"size:100;index;not null"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    int            `json:"bathrooms"`
	AreaSqm      float64        `json:"area_sqm"`
	Status       PropertyStatus `json:"status" gorm:"type:varchar(20);not null;default:'available'"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Agent *User           `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	Media []PropertyMedia `json:"media,omitempty" gorm:"foreignKey:PropertyID"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MediaType defines whether an upload is a photo or a clip
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// PropertyMedia is an image or video stored in the object bucket
type PropertyMedia struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PropertyID uuid.UUID `json:"property_id" gorm:"type:uuid;index;not null"`
	Type       MediaType `json:"type" gorm:"type:varchar(10);not null"`
	URL        string    `json:"url" gorm:"size:1000;not null"`
	ObjectKey  string    `json:"-" gorm:"size:500;not null"`
	FileName   string    `json:"file_name" gorm:"size:255"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type" gorm:"size:100"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

func (PropertyMedia) TableName() string { return "property_media" }

func (m *PropertyMedia) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
