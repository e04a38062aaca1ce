package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for User
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return translateError(dbFrom(ctx, r.db).Create(user).Error)
}

// FindByID finds a user by UUID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := dbFrom(ctx, r.db).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// FindByGoogleID finds a user by Google OAuth ID
func (r *UserRepository) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	var user model.User
	if err := dbFrom(ctx, r.db).Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// ReplacePending overwrites the credentials of an account that never verified its email
func (r *UserRepository) ReplacePending(ctx context.Context, user *model.User) error {
	res := dbFrom(ctx, r.db).Model(&model.User{}).
		Where("id = ? AND email_verified_at IS NULL", user.ID).
		Updates(map[string]interface{}{
			"name":     user.Name,
			"phone":    user.Phone,
			"password": user.Password,
			"role":     user.Role,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConflict
	}
	return nil
}

// MarkEmailVerified stamps the verification time
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return translateError(dbFrom(ctx, r.db).Model(&model.User{}).
		Where("id = ?", userID).
		Update("email_verified_at", at).Error)
}

// UpdatePassword updates a user's password
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	return translateError(dbFrom(ctx, r.db).Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword).Error)
}

// UpdateProfile updates the non-empty profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, name, phone, avatar string) error {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if phone != "" {
		updates["phone"] = phone
	}
	if avatar != "" {
		updates["avatar"] = avatar
	}
	if len(updates) == 0 {
		return nil
	}
	return translateError(dbFrom(ctx, r.db).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error)
}

// UpdateOnlineStatus sets a user's online status and last seen time
func (r *UserRepository) UpdateOnlineStatus(ctx context.Context, id uuid.UUID, isOnline bool, at time.Time) error {
	updates := map[string]interface{}{
		"is_online": isOnline,
	}
	if !isOnline {
		updates["last_seen"] = at
	}
	return translateError(dbFrom(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Updates(updates).Error)
}

// SetActive enables or disables an account
func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := dbFrom(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// List returns users, optionally filtered by role, newest first
func (r *UserRepository) List(ctx context.Context, role string, page, pageSize int) ([]model.User, int64, error) {
	query := dbFrom(ctx, r.db).Model(&model.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	users := []model.User{}
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	return users, total, translateError(err)
}

// CountByRole groups accounts by role
func (r *UserRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	var rows []struct {
		Role  model.Role
		Count int64
	}
	err := dbFrom(ctx, r.db).Model(&model.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	counts := make(map[model.Role]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

// AddDevice adds or refreshes a push token
func (r *UserRepository) AddDevice(ctx context.Context, userID uuid.UUID, token, deviceType string, at time.Time) error {
	device := model.UserDevice{
		UserID:       userID,
		FCMToken:     token,
		DeviceType:   deviceType,
		LastActiveAt: at,
		CreatedAt:    at,
	}
	// A token moves to whichever account registered it last
	return translateError(dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fcm_token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"user_id":        userID,
			"last_active_at": at,
			"device_type":    deviceType,
		}),
	}).Create(&device).Error)
}

// GetDeviceTokens returns the push tokens of the given users
func (r *UserRepository) GetDeviceTokens(ctx context.Context, userIDs []uuid.UUID) ([]string, error) {
	tokens := []string{}
	if len(userIDs) == 0 {
		return tokens, nil
	}
	err := dbFrom(ctx, r.db).Model(&model.UserDevice{}).
		Where("user_id IN ?", userIDs).
		Pluck("fcm_token", &tokens).Error
	return tokens, translateError(err)
}

// RemoveDeviceTokens drops tokens the push provider reported as invalid
func (r *UserRepository) RemoveDeviceTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return translateError(dbFrom(ctx, r.db).Where("fcm_token IN ?", tokens).Delete(&model.UserDevice{}).Error)
}

// GetOrCreateGoogleUser finds a user by email or creates a verified client account
func (r *UserRepository) GetOrCreateGoogleUser(ctx context.Context, info model.GoogleUserInfo, now time.Time) (*model.User, error) {
	db := dbFrom(ctx, r.db)

	var user model.User
	err := db.Where("email = ?", info.Email).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{}
		if user.GoogleID == nil || *user.GoogleID != info.GoogleID {
			id := info.GoogleID
			updates["google_id"] = &id
		}
		if !user.IsEmailVerified() && info.Verified {
			updates["email_verified_at"] = now
		}
		if user.Avatar == "" && info.Picture != "" {
			updates["avatar"] = info.Picture
		}
		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				return nil, translateError(err)
			}
		}
		return &user, nil
	}
	if translated := translateError(err); translated != apperr.ErrNotFound {
		return nil, translated
	}

	googleID := info.GoogleID
	var verifiedAt *time.Time
	if info.Verified {
		verifiedAt = &now
	}
	newUser := model.User{
		Email:           info.Email,
		Name:            info.Name,
		Avatar:          info.Picture,
		Role:            model.RoleClient,
		GoogleID:        &googleID,
		AuthProvider:    model.AuthProviderGoogle,
		EmailVerifiedAt: verifiedAt,
		IsActive:        true,
	}
	if err := db.Create(&newUser).Error; err != nil {
		return nil, translateError(err)
	}
	return &newUser, nil
}
