package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateUser inserts a verified, active member with the given role.
func CreateUser(t *testing.T, db *gorm.DB, role model.Role, email string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		ID:              uuid.New(),
		Name:            string(role) + " " + email,
		Email:           email,
		Phone:           "0900000000",
		Role:            role,
		AuthProvider:    model.AuthProviderEmail,
		EmailVerifiedAt: &now,
		IsActive:        true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateProperty inserts an available listing owned by agentID.
func CreateProperty(t *testing.T, db *gorm.DB, agentID uuid.UUID, city string) *model.Property {
	t.Helper()
	p := &model.Property{
		ID:           uuid.New(),
		AgentID:      agentID,
		Title:        "Riverside apartment",
		Description:  "Two bedrooms near the park",
		PropertyType: model.PropertyTypeApartment,
		ListingType:  model.ListingTypeRent,
		Price:        1200,
		Address:      "12 River St",
		City:         city,
		Bedrooms:     2,
		Bathrooms:    1,
		AreaSqm:      70,
		Status:       model.PropertyStatusAvailable,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
