package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WishlistRepository handles database operations for saved listings
type WishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Add saves a listing; saving it twice is a no-op
func (r *WishlistRepository) Add(ctx context.Context, item *model.WishlistItem) error {
	return translateError(dbFrom(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "property_id"}},
			DoNothing: true,
		}).
		Create(item).Error)
}

// Remove unsaves a listing
func (r *WishlistRepository) Remove(ctx context.Context, userID, propertyID uuid.UUID) error {
	res := dbFrom(ctx, r.db).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Delete(&model.WishlistItem{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's saved listings, most recently saved first
func (r *WishlistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	items := []model.WishlistItem{}
	err := dbFrom(ctx, r.db).
		Preload("Property").
		Preload("Property.Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, translateError(err)
}
