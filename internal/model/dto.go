package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== OTP DTOs ==========

type GenerateOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OTPCode string `json:"otpCode" binding:"required,numeric,min=4,max=10"`
}

// OTPResponse is the envelope of every /api/OTP endpoint
type OTPResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ========== Auth DTOs ==========

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
	Role     Role   `json:"role" binding:"required,oneof=agent client"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,numeric,min=4,max=10"`
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"` // Google ID token from frontend
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type OTPSentResponse struct {
	Message   string    `json:"message"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,numeric,min=4,max=10"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type GoogleUserInfo struct {
	GoogleID string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Verified bool   `json:"email_verified"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"omitempty,min=2,max=100"`
	Phone string `json:"phone" binding:"omitempty,max=30"`
}

type RegisterDeviceRequest struct {
	FCMToken   string `json:"fcm_token" binding:"required"`
	DeviceType string `json:"device_type" binding:"required,oneof=android ios web"`
}

// ========== Property DTOs ==========

type CreatePropertyRequest struct {
	Title        string       `json:"title" binding:"required,min=3,max=200"`
	Description  string       `json:"description"`
	PropertyType PropertyType `json:"property_type" binding:"required,oneof=house apartment condo land commercial"`
	ListingType  ListingType  `json:"listing_type" binding:"required,oneof=sale rent"`
	Price        float64      `json:"price" binding:"required,gt=0"`
	Address      string       `json:"address" binding:"required,max=300"`
	City         string       `json:"city" binding:"required,max=100"`
	Bedrooms     int          `json:"bedrooms" binding:"gte=0"`
	Bathrooms    int          `json:"bathrooms" binding:"gte=0"`
	AreaSqm      float64      `json:"area_sqm" binding:"gte=0"`
}

// UpdatePropertyRequest applies only the fields that are present
type UpdatePropertyRequest struct {
	Title        *string         `json:"title" binding:"omitempty,min=3,max=200"`
	Description  *string         `json:"description"`
	PropertyType *PropertyType   `json:"property_type" binding:"omitempty,oneof=house apartment condo land commercial"`
	ListingType  *ListingType    `json:"listing_type" binding:"omitempty,oneof=sale rent"`
	Price        *float64        `json:"price" binding:"omitempty,gt=0"`
	Address      *string         `json:"address" binding:"omitempty,max=300"`
	City         *string         `json:"city" binding:"omitempty,max=100"`
	Bedrooms     *int            `json:"bedrooms" binding:"omitempty,gte=0"`
	Bathrooms    *int            `json:"bathrooms" binding:"omitempty,gte=0"`
	AreaSqm      *float64        `json:"area_sqm" binding:"omitempty,gte=0"`
	Status       *PropertyStatus `json:"status" binding:"omitempty,oneof=available pending sold rented"`
}

type PropertySearchRequest struct {
	City         string  `form:"city"`
	PropertyType string  `form:"property_type" binding:"omitempty,oneof=house apartment condo land commercial"`
	ListingType  string  `form:"listing_type" binding:"omitempty,oneof=sale rent"`
	Status       string  `form:"status" binding:"omitempty,oneof=available pending sold rented"`
	MinPrice     float64 `form:"min_price" binding:"gte=0"`
	MaxPrice     float64 `form:"max_price" binding:"gte=0"`
	MinBedrooms  int     `form:"min_bedrooms" binding:"gte=0"`
	AgentID      string  `form:"agent_id" binding:"omitempty,uuid"`
	Page         int     `form:"page,default=1" binding:"gte=1"`
	PageSize     int     `form:"page_size,default=20" binding:"gte=1,lte=100"`
}

type PagedResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// ========== Schedule DTOs ==========

type CreateScheduleRequest struct {
	PropertyID   uuid.UUID  `json:"propertyId" binding:"required"`
	AgentID      uuid.UUID  `json:"agentId" binding:"required"`
	ClientID     *uuid.UUID `json:"clientId"` // defaults to the caller
	ScheduleTime time.Time  `json:"scheduleTime" binding:"required"`
	Notes        *string    `json:"notes" binding:"omitempty,max=1000"`
}

type UpdateScheduleRequest struct {
	ScheduleTime *time.Time         `json:"scheduleTime"`
	Status       *AppointmentStatus `json:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
	Notes        *string            `json:"notes" binding:"omitempty,max=1000"`
}

type SlotAvailabilityRequest struct {
	AgentID      string    `form:"agentId" binding:"required,uuid"`
	ScheduleTime time.Time `form:"scheduleTime" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	ExcludeID    string    `form:"excludeId" binding:"omitempty,uuid"`
}

// ScheduleListRequest picks the listing scope; with no filter the caller's own appointments are listed
type ScheduleListRequest struct {
	AgentID    string `form:"agentId" binding:"omitempty,uuid"`
	ClientID   string `form:"clientId" binding:"omitempty,uuid"`
	PropertyID string `form:"propertyId" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
	Page       int    `form:"page,default=1" binding:"gte=1"`
	PageSize   int    `form:"page_size,default=20" binding:"gte=1,lte=100"`
}

type SlotAvailabilityResponse struct {
	Available bool `json:"available"`
}

// ========== Wishlist DTOs ==========

type AddWishlistRequest struct {
	PropertyID uuid.UUID `json:"property_id" binding:"required"`
}

// ========== Conversation DTOs ==========

type DirectConversationRequest struct {
	ReceiverID uuid.UUID  `json:"receiver_id" binding:"required"`
	PropertyID *uuid.UUID `json:"property_id"`
}

type ConversationResponse struct {
	Conversation
	UnreadCount int64 `json:"unread_count"`
}

type SendMessageRequest struct {
	Content  string `json:"content" binding:"required_without=FileURL,max=5000"`
	FileURL  string `json:"file_url,omitempty" binding:"omitempty,url"`
	FileName string `json:"file_name,omitempty"`
}

// AttachmentResponse describes a stored file ready to be sent with SendMessageRequest
type AttachmentResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

type MessageListRequest struct {
	Before string `form:"before"` // cursor for pagination (message ID)
	Limit  int    `form:"limit,default=50" binding:"gte=1,lte=100"`
}

// ========== Admin DTOs ==========

type UserListRequest struct {
	Role     string `form:"role" binding:"omitempty,oneof=agent client admin"`
	Page     int    `form:"page,default=1" binding:"gte=1"`
	PageSize int    `form:"page_size,default=20" binding:"gte=1,lte=100"`
}

type SetUserActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type PlatformStats struct {
	UsersByRole          map[Role]int64              `json:"users_by_role"`
	PropertiesByStatus   map[PropertyStatus]int64    `json:"properties_by_status"`
	AppointmentsByStatus map[AppointmentStatus]int64 `json:"appointments_by_status"`
}

// ========== WebSocket Event DTOs ==========

type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket event types
const (
	WSEventNewMessage          = "new_message"
	WSEventTyping              = "typing"
	WSEventStopTyping          = "stop_typing"
	WSEventOnline              = "online"
	WSEventOffline             = "offline"
	WSEventMessageRead         = "message_read"
	WSEventAppointmentCreated  = "appointment_created"
	WSEventAppointmentUpdated  = "appointment_updated"
	WSEventAppointmentCanceled = "appointment_cancelled"
)

type TypingEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
}

type OnlineEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	IsOnline bool      `json:"is_online"`
}

type MessageReadEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	ReadAt         time.Time `json:"read_at"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
