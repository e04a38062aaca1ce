package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"gorm.io/gorm"
)

// OTPRepository handles database operations for OTP records
type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create inserts a new OTP record
func (r *OTPRepository) Create(ctx context.Context, otp *model.OTPRecord) error {
	return translateError(dbFrom(ctx, r.db).Create(otp).Error)
}

// FindLatestUnused returns the newest unused record for email, expired or not
func (r *OTPRepository) FindLatestUnused(ctx context.Context, email string) (*model.OTPRecord, error) {
	var otp model.OTPRecord
	err := dbFrom(ctx, r.db).
		Where("email = ? AND is_used = ?", email, false).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &otp, nil
}

// FindLatest returns the newest record for email regardless of state
func (r *OTPRepository) FindLatest(ctx context.Context, email string) (*model.OTPRecord, error) {
	var otp model.OTPRecord
	err := dbFrom(ctx, r.db).
		Where("email = ?", email).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &otp, nil
}

// MarkAsUsed flips an unused record to used. A record already used by a
// concurrent call yields ErrNotFound.
func (r *OTPRepository) MarkAsUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := dbFrom(ctx, r.db).Model(&model.OTPRecord{}).
		Where("id = ? AND is_used = ?", id, false).
		UpdateColumns(map[string]interface{}{
			"is_used": true,
			"used_at": at,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// InvalidateValid marks every unused, unexpired record for email as used
// (old codes must stop working once a new one is issued)
func (r *OTPRepository) InvalidateValid(ctx context.Context, email string, now time.Time) (int64, error) {
	res := dbFrom(ctx, r.db).Model(&model.OTPRecord{}).
		Where("email = ? AND is_used = ? AND expires_at > ?", email, false, now).
		UpdateColumns(map[string]interface{}{
			"is_used": true,
			"used_at": now,
		})
	return res.RowsAffected, translateError(res.Error)
}

// CountSince counts records issued to email at or after since (rate limiting)
func (r *OTPRepository) CountSince(ctx context.Context, email string, since time.Time) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&model.OTPRecord{}).
		Where("email = ? AND created_at >= ?", email, since).
		Count(&count).Error
	return count, translateError(err)
}

// DeleteAllForEmail physically removes every record for email
func (r *OTPRepository) DeleteAllForEmail(ctx context.Context, email string) (int64, error) {
	res := dbFrom(ctx, r.db).Where("email = ?", email).Delete(&model.OTPRecord{})
	return res.RowsAffected, translateError(res.Error)
}

// DeleteExpiredBefore removes records that expired before cutoff (housekeeping)
func (r *OTPRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := dbFrom(ctx, r.db).Where("expires_at < ?", cutoff).Delete(&model.OTPRecord{})
	return res.RowsAffected, translateError(res.Error)
}
